package dataset

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTableSchema(t *testing.T) {
	Convey("测试表结构", t, func() {
		Convey("主表包含 recordID 和 modID", func() {
			s := NewMainSchema()
			So(s.ColumnNames(), ShouldResemble, []string{"recordID", "modID"})
		})

		Convey("子表包含 parentRecordID", func() {
			s := NewRelatedSchema("Colors")
			s.AddField("Name", Text)
			So(s.ColumnNames(), ShouldResemble, []string{"parentRecordID", "recordID", "modID", "Name"})
		})

		Convey("列名冲突时追加 _dup", func() {
			s := NewMainSchema()
			So(s.AddField("Name", Text), ShouldEqual, "Name")
			So(s.AddField("Name", Number), ShouldEqual, "Name_dup")
			So(s.AddField("Name", Date), ShouldEqual, "Name_dup_dup")
			So(s.AddField("recordID", Text), ShouldEqual, "recordID_dup")
			So(s.ColumnsOf("Name"), ShouldResemble, []string{"Name", "Name_dup", "Name_dup_dup"})

			c, ok := s.Column("Name_dup")
			So(ok, ShouldBeTrue)
			So(c.Result, ShouldEqual, Number)
			So(c.Field, ShouldEqual, "Name")
		})
	})
}

func TestResultType(t *testing.T) {
	Convey("测试结果类型解析", t, func() {
		So(ParseResultType("number"), ShouldEqual, Number)
		So(ParseResultType("timestamp"), ShouldEqual, Timestamp)
		So(ParseResultType("container"), ShouldEqual, Container)
		So(ParseResultType("whatever"), ShouldEqual, Text)
		So(Date.String(), ShouldEqual, "date")
	})
}

func TestDataSet(t *testing.T) {
	Convey("测试数据集", t, func() {
		colors := &Table{Schema: NewRelatedSchema("Colors"), Rows: []Row{
			{"parentRecordID": "1", "recordID": "10"},
			{"parentRecordID": "2", "recordID": "11"},
			{"parentRecordID": "1", "recordID": "12"},
		}}
		ds := &DataSet{
			Main:      &Table{Schema: NewMainSchema(), Rows: []Row{{"recordID": "1"}, {"recordID": "2"}}},
			Related:   []*Table{colors},
			Relations: []Relation{NewRelation("Colors")},
		}

		tbl, ok := ds.Table("Colors")
		So(ok, ShouldBeTrue)
		So(tbl.Children("1"), ShouldHaveLength, 2)
		So(ds.Tables(), ShouldHaveLength, 2)
		So(ds.Empty(), ShouldBeFalse)
		So(ds.Relations[0].String(), ShouldEqual, "main.recordID -> Colors.parentRecordID")

		_, ok = ds.Table("Missing")
		So(ok, ShouldBeFalse)
	})
}
