package fieldcache

import (
	"encoding/json"

	"github.com/hatlonely/fmxml/dataset"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"go.mongodb.org/mongo-driver/bson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Codec 字段定义的序列化方式
type Codec interface {
	Marshal(fields []dataset.FieldDefinition) ([]byte, error)
	Unmarshal(data []byte) ([]dataset.FieldDefinition, error)
}

// NewCodec 按名称选择：msgpack（默认）、json、bson、protobuf
func NewCodec(name string) (Codec, error) {
	switch name {
	case "", "msgpack":
		return MsgPackCodec{}, nil
	case "json":
		return JSONCodec{}, nil
	case "bson":
		return BSONCodec{}, nil
	case "protobuf":
		return ProtobufCodec{}, nil
	}
	return nil, errors.Errorf("unsupported codec %q", name)
}

type MsgPackCodec struct{}

func (MsgPackCodec) Marshal(fields []dataset.FieldDefinition) ([]byte, error) {
	return msgpack.Marshal(fields)
}

func (MsgPackCodec) Unmarshal(data []byte) ([]dataset.FieldDefinition, error) {
	var fields []dataset.FieldDefinition
	if err := msgpack.Unmarshal(data, &fields); err != nil {
		return nil, errors.Wrap(err, "msgpack.Unmarshal failed")
	}
	return fields, nil
}

type JSONCodec struct{}

func (JSONCodec) Marshal(fields []dataset.FieldDefinition) ([]byte, error) {
	return json.Marshal(fields)
}

func (JSONCodec) Unmarshal(data []byte) ([]dataset.FieldDefinition, error) {
	var fields []dataset.FieldDefinition
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, errors.Wrap(err, "json.Unmarshal failed")
	}
	return fields, nil
}

// BSONCodec 顶层必须是文档，字段列表放在 fields 下
type BSONCodec struct{}

type bsonDocument struct {
	Fields []dataset.FieldDefinition `bson:"fields"`
}

func (BSONCodec) Marshal(fields []dataset.FieldDefinition) ([]byte, error) {
	return bson.Marshal(bsonDocument{Fields: fields})
}

func (BSONCodec) Unmarshal(data []byte) ([]dataset.FieldDefinition, error) {
	var doc bsonDocument
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "bson.Unmarshal failed")
	}
	return doc.Fields, nil
}

// ProtobufCodec 字段定义没有对应的 .proto，按 structpb.ListValue 编码
type ProtobufCodec struct{}

func (ProtobufCodec) Marshal(fields []dataset.FieldDefinition) ([]byte, error) {
	values := make([]*structpb.Value, 0, len(fields))
	for _, f := range fields {
		s, err := structpb.NewStruct(map[string]any{
			"name":            f.Name,
			"type":            f.Type,
			"result":          f.Result.String(),
			"global":          f.Global,
			"repetitionCount": f.RepetitionCount,
			"portal":          f.Portal,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", f.Name)
		}
		values = append(values, structpb.NewStructValue(s))
	}
	return proto.Marshal(&structpb.ListValue{Values: values})
}

func (ProtobufCodec) Unmarshal(data []byte) ([]dataset.FieldDefinition, error) {
	var list structpb.ListValue
	if err := proto.Unmarshal(data, &list); err != nil {
		return nil, errors.Wrap(err, "proto.Unmarshal failed")
	}
	fields := make([]dataset.FieldDefinition, 0, len(list.Values))
	for _, v := range list.Values {
		m := v.GetStructValue().GetFields()
		fields = append(fields, dataset.FieldDefinition{
			Name:            m["name"].GetStringValue(),
			Type:            m["type"].GetStringValue(),
			Result:          dataset.ParseResultType(m["result"].GetStringValue()),
			Global:          m["global"].GetBoolValue(),
			RepetitionCount: int(m["repetitionCount"].GetNumberValue()),
			Portal:          m["portal"].GetStringValue(),
		})
	}
	return fields, nil
}
