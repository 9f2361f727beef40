package wire

import (
	"encoding/xml"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const resultSetXML = `<?xml version="1.0" encoding="UTF-8"?>
<fmresultset xmlns="http://www.filemaker.com/xml/fmresultset" version="1.0">
  <error code="0"/>
  <product build="03/15/2024" name="FileMaker Web Publishing Engine" version="19.6.3"/>
  <datasource database="Products" date-format="MM/dd/yyyy" layout="Web" table="Products" time-format="HH:mm:ss" timestamp-format="MM/dd/yyyy HH:mm:ss" total-count="42"/>
  <metadata>
    <field-definition auto-enter="no" global="no" max-repeat="1" name="Name" not-empty="no" result="text" type="normal"/>
    <relatedset-definition table="Colors">
      <field-definition global="no" max-repeat="1" name="Colors::Name" result="text" type="normal"/>
    </relatedset-definition>
    <field-definition global="yes" max-repeat="3" name="Price" result="number" type="normal"/>
  </metadata>
  <resultset count="1" fetch-size="1">
    <record mod-id="3" record-id="1">
      <field name="Name"><data>Widget</data></field>
      <field name="Price"><data>9.5</data><data>10</data><data></data></field>
      <relatedset count="1" table="Colors">
        <record mod-id="0" record-id="10"><field name="Colors::Name"><data>Red</data></field></record>
      </relatedset>
    </record>
    <record mod-id="1" record-id="2"></record>
  </resultset>
</fmresultset>`

const layoutXML = `<?xml version="1.0" encoding="UTF-8"?>
<FMPXMLLAYOUT xmlns="http://www.filemaker.com/fmpxmllayout">
  <ERRORCODE>0</ERRORCODE>
  <PRODUCT BUILD="x" NAME="FileMaker Web Publishing Engine" VERSION="19"/>
  <LAYOUT DATABASE="Products" NAME="Web">
    <FIELD NAME="Status"><STYLE TYPE="POPUPMENU" VALUELIST="StatusList"/></FIELD>
  </LAYOUT>
  <VALUELISTS>
    <VALUELIST NAME="StatusList">
      <VALUE DISPLAY="Open">1</VALUE>
      <VALUE DISPLAY="Closed">2</VALUE>
    </VALUELIST>
  </VALUELISTS>
</FMPXMLLAYOUT>`

func TestResultSetDocument(t *testing.T) {
	Convey("测试 fmresultset 解析", t, func() {
		var doc ResultSetDocument
		So(xml.Unmarshal([]byte(resultSetXML), &doc), ShouldBeNil)

		code, err := doc.ErrorCode()
		So(err, ShouldBeNil)
		So(code, ShouldEqual, 0)
		So(doc.Product.Version, ShouldEqual, "19.6.3")
		So(doc.Datasource.DateFormat, ShouldEqual, "MM/dd/yyyy")
		So(doc.Datasource.TotalCount, ShouldEqual, "42")

		Convey("metadata 保留文档顺序", func() {
			So(doc.Metadata.Entries, ShouldHaveLength, 3)
			So(doc.Metadata.Entries[0].Field, ShouldNotBeNil)
			So(doc.Metadata.Entries[1].RelatedSet, ShouldNotBeNil)
			So(doc.Metadata.Entries[1].RelatedSet.Table, ShouldEqual, "Colors")
			So(doc.Metadata.Entries[1].RelatedSet.Fields, ShouldHaveLength, 1)
			So(doc.Metadata.Entries[2].Field, ShouldNotBeNil)

			name, ok := doc.Metadata.Entries[2].Field.Attr("name")
			So(ok, ShouldBeTrue)
			So(name, ShouldEqual, "Price")

			_, err := doc.Metadata.Entries[0].Field.RequireAttr("four-digit-year")
			So(err, ShouldNotBeNil)
		})

		Convey("记录与 portal", func() {
			records := doc.ResultSet.Records
			So(records, ShouldHaveLength, 2)
			So(records[0].RecordID, ShouldEqual, "1")
			So(records[0].Fields[1].Value(), ShouldEqual, "9.5")
			So(records[0].RelatedSets[0].Records[0].Fields[0].Value(), ShouldEqual, "Red")
			So(records[1].Empty(), ShouldBeTrue)
		})
	})

	Convey("测试错误码解析", t, func() {
		doc := ResultSetDocument{Error: ErrorNode{Code: "401"}}
		code, err := doc.ErrorCode()
		So(err, ShouldBeNil)
		So(code, ShouldEqual, 401)

		doc.Error.Code = "abc"
		_, err = doc.ErrorCode()
		So(err, ShouldNotBeNil)
	})
}

func TestLayoutDocument(t *testing.T) {
	Convey("测试 FMPXMLLAYOUT 解析", t, func() {
		var doc LayoutDocument
		So(xml.Unmarshal([]byte(layoutXML), &doc), ShouldBeNil)

		code, err := doc.Code()
		So(err, ShouldBeNil)
		So(code, ShouldEqual, 0)
		So(doc.Layout.Name, ShouldEqual, "Web")
		So(doc.Layout.Fields[0].Style.ValueList, ShouldEqual, "StatusList")
		So(doc.ValueLists, ShouldHaveLength, 1)
		So(doc.ValueLists[0].Values[1].Display, ShouldEqual, "Closed")
		So(doc.ValueLists[0].Values[1].Value, ShouldEqual, "2")
	})
}
