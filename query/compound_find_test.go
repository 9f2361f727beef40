package query

import (
	"strings"
	"testing"

	"github.com/hatlonely/fmxml/fmerr"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCompoundFindCompile(t *testing.T) {
	Convey("测试复合查找编译", t, func() {
		Convey("AND 与 OR 混合", func() {
			f := NewCompoundFind().
				AddCriterion("Color", "Red", false, false).
				AddCriterion("Color", "Blue", true, false)
			q, err := f.Compile()
			So(err, ShouldBeNil)
			So(q.Expression, ShouldEqual, "(q1);(q2);")
			So(q.String(), ShouldEqual, "q1=Color&q1.value=Red&q2=Color&q2.value=Blue")
		})

		Convey("只有 AND 条件时只有一个分组", func() {
			q, err := NewCompoundFind().And("A", "1").And("B", "2").And("C", "3").Compile()
			So(err, ShouldBeNil)
			So(q.Expression, ShouldEqual, "(q1, q2, q3);")
			So(strings.Count(q.Expression, "("), ShouldEqual, 1)
			So(q.Expression, ShouldNotContainSubstring, "!")
		})

		Convey("每个 OR 条件单独成组并保持插入顺序", func() {
			q, err := NewCompoundFind().Or("A", "1").And("B", "2").Or("C", "3").Compile()
			So(err, ShouldBeNil)
			So(q.Expression, ShouldEqual, "(q2);(q1);(q3);")
		})

		Convey("OMIT 分组位于 AND、OR 之后", func() {
			q, err := NewCompoundFind().
				Omit("Description", "Chipped").
				And("Name", "Glass").
				Or("Colors::Name", "Red").
				And("Colors::Name", "Blue").
				Compile()
			So(err, ShouldBeNil)
			So(q.Expression, ShouldEqual, "(q2, q4);(q3);!(q1);")
		})

		Convey("OR 与 OMIT 同时设置时按 OMIT 处理", func() {
			q, err := NewCompoundFind().And("A", "1").AddCriterion("B", "2", true, true).Compile()
			So(err, ShouldBeNil)
			So(q.Expression, ShouldEqual, "(q1);!(q2);")
		})

		Convey("没有 AND 条件时不输出空分组", func() {
			q, err := NewCompoundFind().Or("A", "1").Omit("B", "2").Compile()
			So(err, ShouldBeNil)
			So(q.Expression, ShouldEqual, "(q1);!(q2);")
			So(q.Expression, ShouldNotContainSubstring, "();")
		})

		Convey("N 个条件生成 N 组绑定，标签与插入顺序一致", func() {
			f := NewCompoundFind().Omit("A", "1").Or("B", "2").And("C", "3").Or("D", "4").Omit("E", "5")
			q, err := f.Compile()
			So(err, ShouldBeNil)
			So(q.Bindings, ShouldHaveLength, 5)
			for i, b := range q.Bindings {
				So(b.Tag, ShouldEqual, "q"+string(rune('1'+i)))
				So(b.Field, ShouldEqual, f.Criteria()[i].Field)
			}
		})

		Convey("没有条件", func() {
			_, err := NewCompoundFind().Compile()
			So(errors.Is(err, fmerr.ErrEmptyQuery), ShouldBeTrue)

			_, err = NewCompoundFind().Params()
			So(errors.Is(err, fmerr.ErrEmptyQuery), ShouldBeTrue)
		})
	})
}

func TestCompoundFindParams(t *testing.T) {
	Convey("测试复合查找请求参数", t, func() {
		f := NewCompoundFind().
			And("Color", "Red").
			Or("Color", "Blue").
			AddSort("Name", Descend).
			SetSkip(10).
			SetMax(5).
			SetScripts(Scripts{Prefind: &Script{Name: "Prepare", Param: "x"}})

		p, err := f.Params()
		So(err, ShouldBeNil)
		So(p.Encode(), ShouldEqual, strings.Join([]string{
			"-sortfield.1=Name",
			"-sortorder.1=descend",
			"-skip=10",
			"-max=5",
			"-script.prefind=Prepare",
			"-script.prefind.param=x",
			"-query=%28q1%29%3B%28q2%29%3B",
			"-q1=Color",
			"-q1.value=Red",
			"-q2=Color",
			"-q2.value=Blue",
			"-findquery",
		}, "&"))

		Convey("重复编译结果一致", func() {
			again, err := f.Params()
			So(err, ShouldBeNil)
			So(again, ShouldResemble, p)
		})

		Convey("字段名与值被转义", func() {
			p, err := NewCompoundFind().And("Colors::Name", "Red & Blue").Params()
			So(err, ShouldBeNil)
			So(p.Encode(), ShouldContainSubstring, "-q1=Colors%3A%3AName&-q1.value=Red+%26+Blue")
		})

		Convey("请求类型", func() {
			So(f.Command(), ShouldEqual, CmdFindQuery)
			So(f.Operation(), ShouldEqual, fmerr.OpFind)
		})
	})
}
