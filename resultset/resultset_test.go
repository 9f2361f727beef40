package resultset

import (
	"encoding/xml"
	"fmt"
	"testing"
	"time"

	"github.com/hatlonely/fmxml/dataset"
	"github.com/hatlonely/fmxml/fmerr"
	"github.com/hatlonely/fmxml/wire"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

const productsXML = `<?xml version="1.0" encoding="UTF-8"?>
<fmresultset xmlns="http://www.filemaker.com/xml/fmresultset" version="1.0">
  <error code="%s"/>
  <product build="03/15/2024" name="FileMaker Web Publishing Engine" version="19.6.3"/>
  <datasource database="Products" date-format="MM/dd/yyyy" layout="Web" table="Products" time-format="HH:mm:ss" timestamp-format="MM/dd/yyyy HH:mm:ss" total-count="7"/>
  <metadata>
    <field-definition global="no" max-repeat="1" name="Name" result="text" type="normal"/>
    <relatedset-definition table="Colors">
      <field-definition global="no" max-repeat="1" name="Name" result="text" type="normal"/>
    </relatedset-definition>
    <field-definition global="no" max-repeat="1" name="Price" result="number" type="normal"/>
    <field-definition global="yes" max-repeat="2" name="Released" result="date" type="normal"/>
    <field-definition global="no" max-repeat="1" name="Opens" result="time" type="normal"/>
    <field-definition global="no" max-repeat="1" name="Modified" result="timestamp" type="normal"/>
    <field-definition global="no" max-repeat="1" name="Photo" result="container" type="normal"/>
    <field-definition global="no" max-repeat="1" name="Price" result="text" type="calculation"/>
  </metadata>
  <resultset count="2" fetch-size="2">
    <record mod-id="3" record-id="1">
      <field name="Name"><data>Widget</data></field>
      <field name="Price"><data>abc</data></field>
      <field name="Released"><data>03/15/2024</data></field>
      <field name="Opens"><data>09:30:00</data></field>
      <field name="Modified"><data>12/31/2023 23:59:58</data></field>
      <field name="Photo"><data>/fmi/xml/cnt/widget.jpg?-db=Products&amp;-lay=Web&amp;-recid=1&amp;-field=Photo(1)</data></field>
      <field name="Price"><data>9.50</data></field>
      <relatedset count="2" table="Colors">
        <record mod-id="0" record-id="10"><field name="Name"><data>Red</data></field></record>
        <record mod-id="0" record-id="11"><field name="Name"><data>Blue</data></field></record>
      </relatedset>
    </record>
    <record mod-id="1" record-id="2">
      <field name="Name"><data>Gadget</data></field>
      <field name="Price"><data></data></field>
      <relatedset count="0" table="Colors"/>
    </record>
    <record mod-id="1" record-id="3"></record>
  </resultset>
</fmresultset>`

func parse(code string) *wire.ResultSetDocument {
	var doc wire.ResultSetDocument
	So(xml.Unmarshal([]byte(fmt.Sprintf(productsXML, code)), &doc), ShouldBeNil)
	return &doc
}

func TestInferSchema(t *testing.T) {
	Convey("测试表结构推断", t, func() {
		doc := parse("0")
		schema, err := InferSchema(doc.Metadata)
		So(err, ShouldBeNil)

		So(schema.FieldsFound, ShouldEqual, 8)
		So(schema.Fields, ShouldHaveLength, 8)
		So(schema.Main.ColumnNames(), ShouldResemble, []string{
			"recordID", "modID", "Name", "Price", "Released", "Opens", "Modified", "Photo", "Price_dup",
		})
		So(schema.Related, ShouldHaveLength, 1)
		So(schema.Related[0].ColumnNames(), ShouldResemble, []string{"parentRecordID", "recordID", "modID", "Name"})
		So(schema.Relations, ShouldResemble, []dataset.Relation{dataset.NewRelation("Colors")})

		So(schema.Fields[1].Portal, ShouldEqual, "Colors")
		So(schema.Fields[3].Global, ShouldBeTrue)
		So(schema.Fields[3].RepetitionCount, ShouldEqual, 2)
		So(schema.Fields[7].Type, ShouldEqual, "calculation")

		Convey("重复推断结果一致", func() {
			again, err := InferSchema(doc.Metadata)
			So(err, ShouldBeNil)
			So(again.Main.ColumnNames(), ShouldResemble, schema.Main.ColumnNames())
			So(again.Relations, ShouldResemble, schema.Relations)
		})
	})

	Convey("测试 metadata 异常", t, func() {
		Convey("缺少 metadata", func() {
			_, err := InferSchema(nil)
			So(errors.Is(err, fmerr.ErrDecode), ShouldBeTrue)
		})

		Convey("缺少必需属性", func() {
			var meta wire.Metadata
			So(xml.Unmarshal([]byte(`<metadata><field-definition name="A" type="normal" result="text" global="no"/></metadata>`), &meta), ShouldBeNil)
			_, err := InferSchema(&meta)
			So(errors.Is(err, fmerr.ErrDecode), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "max-repeat")
		})

		Convey("portal 字段缺少必需属性", func() {
			var meta wire.Metadata
			So(xml.Unmarshal([]byte(`<metadata><relatedset-definition table="T"><field-definition name="A" result="text" max-repeat="1" global="no"/></relatedset-definition></metadata>`), &meta), ShouldBeNil)
			_, err := InferSchema(&meta)
			So(errors.Is(err, fmerr.ErrDecode), ShouldBeTrue)
		})

		Convey("max-repeat 非法", func() {
			var meta wire.Metadata
			So(xml.Unmarshal([]byte(`<metadata><field-definition name="A" type="normal" result="text" max-repeat="x" global="no"/></metadata>`), &meta), ShouldBeNil)
			_, err := InferSchema(&meta)
			So(errors.Is(err, fmerr.ErrDecode), ShouldBeTrue)
		})

		Convey("未知节点", func() {
			var meta wire.Metadata
			So(xml.Unmarshal([]byte(`<metadata><layout-definition/></metadata>`), &meta), ShouldBeNil)
			_, err := InferSchema(&meta)
			So(errors.Is(err, fmerr.ErrDecode), ShouldBeTrue)
		})
	})
}

func TestDecode(t *testing.T) {
	Convey("测试响应解码", t, func() {
		ds, err := Decode(parse("0"), fmerr.OpFind)
		So(err, ShouldBeNil)
		So(ds.TotalCount, ShouldEqual, 7)
		So(ds.FetchSize, ShouldEqual, 2)

		Convey("空记录被跳过", func() {
			So(ds.Main.Rows, ShouldHaveLength, 2)
		})

		Convey("主表行", func() {
			row := ds.Main.Rows[0]
			So(row["recordID"], ShouldEqual, "1")
			So(row["modID"], ShouldEqual, "3")
			So(row["Name"], ShouldEqual, "Widget")
			So(row["Price"], ShouldEqual, 0.0)
			So(row["Price_dup"], ShouldEqual, "9.50")
			So(row["Released"], ShouldEqual, time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local))
			So(row["Modified"], ShouldEqual, time.Date(2023, 12, 31, 23, 59, 58, 0, time.Local))
			So(row["Photo"], ShouldStartWith, "/fmi/xml/cnt/widget.jpg")

			opens := row["Opens"].(time.Time)
			So(opens.Hour(), ShouldEqual, 9)
			So(opens.Minute(), ShouldEqual, 30)
		})

		Convey("空值不写入", func() {
			_, ok := ds.Main.Rows[1]["Price"]
			So(ok, ShouldBeFalse)
		})

		Convey("portal 行带 parentRecordID", func() {
			colors, ok := ds.Table("Colors")
			So(ok, ShouldBeTrue)
			So(colors.Rows, ShouldHaveLength, 2)
			So(colors.Rows[0]["parentRecordID"], ShouldEqual, "1")
			So(colors.Rows[0]["recordID"], ShouldEqual, "10")
			So(colors.Rows[1]["Name"], ShouldEqual, "Blue")
			So(colors.Children("1"), ShouldHaveLength, 2)
		})
	})

	Convey("测试 401 返回空结果", t, func() {
		ds, err := Decode(parse("401"), fmerr.OpFind)
		So(err, ShouldBeNil)
		So(ds.Empty(), ShouldBeTrue)
		So(ds.Main.Schema.ColumnNames(), ShouldContain, "Name")
		So(ds.Related, ShouldHaveLength, 1)
		So(ds.Related[0].Rows, ShouldBeEmpty)
	})

	Convey("测试 401 没有 metadata", t, func() {
		ds, err := Decode(&wire.ResultSetDocument{Error: wire.ErrorNode{Code: "401"}}, fmerr.OpFind)
		So(err, ShouldBeNil)
		So(ds.Empty(), ShouldBeTrue)
		So(ds.Main.Schema.ColumnNames(), ShouldResemble, []string{"recordID", "modID"})
	})

	Convey("测试 802 返回服务端错误", t, func() {
		_, err := Decode(parse("802"), fmerr.OpFind)
		So(errors.Is(err, fmerr.ErrServerRejected), ShouldBeTrue)
		code, _ := fmerr.CodeOf(err)
		So(code, ShouldEqual, 802)
	})

	Convey("测试编辑请求的 401", t, func() {
		_, err := Decode(parse("401"), fmerr.OpEdit)
		So(errors.Is(err, fmerr.ErrServerRejected), ShouldBeTrue)
	})

	Convey("测试日期格式错误", t, func() {
		doc := parse("0")
		doc.ResultSet.Records[0].Fields[2].Data = []string{"2024-03-15"}
		ds, err := Decode(doc, fmerr.OpFind)
		So(ds, ShouldBeNil)
		So(errors.Is(err, fmerr.ErrInvalidFieldData), ShouldBeTrue)

		var coercionErr *CoercionError
		So(errors.As(err, &coercionErr), ShouldBeTrue)
		So(coercionErr.Field, ShouldEqual, "Released")
	})

	Convey("测试严格数值策略", t, func() {
		_, err := Decode(parse("0"), fmerr.OpFind, WithCoercion(Coercion{Number: StrictNumber}))
		So(errors.Is(err, fmerr.ErrInvalidFieldData), ShouldBeTrue)
	})
}

func TestPortalResponseScenario(t *testing.T) {
	Convey("测试主表与 portal 同名字段", t, func() {
		var meta wire.Metadata
		So(xml.Unmarshal([]byte(`<metadata>
			<field-definition name="Name" type="normal" result="text" max-repeat="1" global="no"/>
			<relatedset-definition table="Colors">
				<field-definition name="Name" type="normal" result="text" max-repeat="1" global="no"/>
			</relatedset-definition>
		</metadata>`), &meta), ShouldBeNil)

		schema, err := InferSchema(&meta)
		So(err, ShouldBeNil)
		So(schema.Main.ColumnNames(), ShouldResemble, []string{"recordID", "modID", "Name"})
		So(schema.Related[0].Name, ShouldEqual, "Colors")
		So(schema.Related[0].ColumnNames(), ShouldResemble, []string{"parentRecordID", "recordID", "modID", "Name"})
		So(schema.Relations[0].String(), ShouldEqual, "main.recordID -> Colors.parentRecordID")
	})
}
