package pass_test

import (
	"errors"

	"github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/fsmforge/ir"
	"github.com/sarchlab/fsmforge/pass"
	"github.com/sarchlab/fsmforge/primitives"
	"github.com/sarchlab/fsmforge/validate"
)

func buildRegGroup(comp *ir.Component, name string) ir.GroupID {
	reg := comp.AddCell(ir.Cell{Name: comp.Names().Gen("r"), Prototype: "std_reg", Params: map[string]uint64{"WIDTH": 1}})
	in := comp.AddCellPort(reg, "in", ir.In, ir.Width{Fixed: 1})
	writeEn := comp.AddCellPort(reg, "write_en", ir.In, ir.Width{Fixed: 1})
	comp.AddCellPort(reg, "out", ir.Out, ir.Width{Fixed: 1})
	done := comp.AddCellPort(reg, "done", ir.Out, ir.Width{Fixed: 1})

	high := comp.AddCell(ir.Cell{Name: comp.Names().Gen("high"), Prototype: "std_const", Params: map[string]uint64{"WIDTH": 1, "VALUE": 1}})
	one := comp.AddCellPort(high, "out", ir.Out, ir.Width{Fixed: 1})

	gid := comp.AddGroup(name)
	g := comp.Group(gid)
	g.Assignments = append(g.Assignments,
		ir.Guarded(in, one, ir.True()),
		ir.Guarded(writeEn, one, ir.True()),
		ir.NewAssignment(g.DoneHole, done),
	)
	return gid
}

func buildDynamicComponent() *ir.Component {
	comp := ir.NewComponent("dyn")
	comp.AddSigPort("go", ir.In, ir.Width{Fixed: 1})
	comp.AddSigPort("done", ir.Out, ir.Width{Fixed: 1})

	g1 := buildRegGroup(comp, "g1")
	g2 := buildRegGroup(comp, "g2")

	comp.Control = ir.Seq(ir.Enable(g1), ir.Enable(g2))
	return comp
}

func buildStaticComponent() *ir.Component {
	comp := ir.NewComponent("stat")
	comp.Kind = ir.Static
	comp.Latency = 5
	out := comp.AddSigPort("out", ir.Out, ir.Width{Fixed: 1})
	in := comp.AddSigPort("in", ir.In, ir.Width{Fixed: 1})

	a := comp.AddStaticGroup("a", 2)
	comp.StaticGroup(a).Assignments = []ir.Assignment{ir.Guarded(out, in, ir.Info(0, 1))}
	b := comp.AddStaticGroup("b", 3)
	comp.StaticGroup(b).Assignments = []ir.Assignment{ir.Guarded(out, in, ir.Info(0, 1))}

	comp.Control = ir.StaticSeq(5, ir.StaticEnable(a, 2), ir.StaticEnable(b, 3))
	return comp
}

var _ = Describe("Walk", func() {
	It("visits every node in a Seq/If/While tree exactly once", func() {
		leafEnable := ir.Enable(0)
		cond := ir.PortID(0)
		tree := ir.Seq(
			leafEnable,
			ir.If(cond, ir.Enable(1), ir.Enable(2)),
			ir.While(cond, ir.Enable(3)),
		)

		var kinds []ir.ControlKind
		action := pass.Walk(tree, pass.Visitor{
			OnEnter: func(c *ir.Control) pass.Action {
				kinds = append(kinds, c.Kind)
				return pass.ActionContinue
			},
		})

		Expect(action).To(Equal(pass.ActionContinue))
		Expect(kinds).To(HaveLen(7))
		Expect(kinds[0]).To(Equal(ir.CSeq))
	})

	It("honours ActionSkip by not descending into a node's children", func() {
		tree := ir.Seq(ir.Enable(0), ir.If(ir.PortID(0), ir.Enable(1), ir.Enable(2)))

		var kinds []ir.ControlKind
		pass.Walk(tree, pass.Visitor{
			OnEnter: func(c *ir.Control) pass.Action {
				kinds = append(kinds, c.Kind)
				if c.Kind == ir.CIf {
					return pass.ActionSkip
				}
				return pass.ActionContinue
			},
		})

		Expect(kinds).To(Equal([]ir.ControlKind{ir.CSeq, ir.CEnable, ir.CIf}))
	})

	It("honours ActionStop by aborting the walk", func() {
		tree := ir.Seq(ir.Enable(0), ir.Enable(1), ir.Enable(2))

		var seen int
		action := pass.Walk(tree, pass.Visitor{
			OnEnter: func(c *ir.Control) pass.Action {
				seen++
				if c.Kind == ir.CEnable {
					return pass.ActionStop
				}
				return pass.ActionContinue
			},
		})

		Expect(action).To(Equal(pass.ActionStop))
		Expect(seen).To(Equal(2))
	})
})

var _ = Describe("Driver.CompileComponent", func() {
	It("reduces a purely dynamic Seq control tree to one top-level Enable", func() {
		comp := buildDynamicComponent()
		driver := pass.NewDriverBuilder(primitives.Default()).Build()

		Expect(driver.CompileComponent(comp)).To(Succeed())
		Expect(comp.Control.Kind).To(Equal(ir.CEnable))
	})

	It("reduces a static control tree to one top-level Enable via a realized static island", func() {
		comp := buildStaticComponent()
		cellsBefore := len(comp.Cells)
		driver := pass.NewDriverBuilder(primitives.Default()).Build()

		Expect(driver.CompileComponent(comp)).To(Succeed())
		Expect(comp.Control.Kind).To(Equal(ir.CEnable))
		Expect(len(comp.Cells)).To(BeNumerically(">", cellsBefore), "expected a counter FSM to have been materialized")
	})

	It("leaves an already-Empty control tree untouched", func() {
		comp := ir.NewComponent("comb")
		driver := pass.NewDriverBuilder(primitives.Default()).Build()

		Expect(driver.CompileComponent(comp)).To(Succeed())
		Expect(comp.Control.Kind).To(Equal(ir.CEmpty))
	})
})

var _ = Describe("Driver.CompileProgram", func() {
	var ctrl *gomock.Controller

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
	})

	AfterEach(func() {
		ctrl.Finish()
	})

	It("returns a CompileError when the validator reports a fatal issue", func() {
		mockValidator := NewMockValidator(ctrl)
		mockValidator.EXPECT().ValidateProgram(gomock.Any()).Return([]validate.Issue{
			{Type: validate.IssueMalformedStructure, Component: "main", Message: "boom"},
		})

		driver := pass.NewDriverBuilder(primitives.Default()).WithValidator(mockValidator).Build()
		comp := ir.NewComponent("main")

		err := driver.CompileProgram(map[string]*ir.Component{"main": comp})
		Expect(err).To(HaveOccurred())

		var compileErr *pass.CompileError
		Expect(errors.As(err, &compileErr)).To(BeTrue())
		Expect(compileErr.Issues).To(HaveLen(1))
	})

	It("succeeds when the validator reports only warnings", func() {
		mockValidator := NewMockValidator(ctrl)
		mockValidator.EXPECT().ValidateProgram(gomock.Any()).Return([]validate.Issue{
			{Type: validate.IssueWarning, Component: "main", Message: "heads up"},
		})

		driver := pass.NewDriverBuilder(primitives.Default()).WithValidator(mockValidator).Build()
		comp := ir.NewComponent("main")

		Expect(driver.CompileProgram(map[string]*ir.Component{"main": comp})).To(Succeed())
	})
})
