package ir_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/fsmforge/ir"
)

var _ = Describe("Guard simplification", func() {
	It("collapses And with a true operand to the other operand", func() {
		p := ir.PortGuard(ir.PortID(3))
		Expect(ir.And(ir.True(), p)).To(Equal(p))
		Expect(ir.And(p, ir.True())).To(Equal(p))
	})

	It("collapses Or with a true operand to true", func() {
		p := ir.PortGuard(ir.PortID(3))
		Expect(ir.Or(ir.True(), p).IsTrue()).To(BeTrue())
		Expect(ir.Or(p, ir.True()).IsTrue()).To(BeTrue())
	})

	It("eliminates double negation", func() {
		p := ir.PortGuard(ir.PortID(1))
		Expect(ir.Not(ir.Not(p))).To(Equal(p))
	})

	It("propagates And/Or with a false operand to false/other-operand", func() {
		p := ir.PortGuard(ir.PortID(2))
		falseGuard := ir.Not(ir.True())
		Expect(ir.And(p, falseGuard).IsTrue()).To(BeFalse())
		Expect(ir.Or(p, falseGuard)).To(Equal(p))
	})

	It("panics constructing a malformed Info(hi<=lo)", func() {
		Expect(func() { ir.Info(3, 3) }).To(Panic())
		Expect(func() { ir.Info(3, 1) }).To(Panic())
	})
})

var _ = Describe("Guard.Update", func() {
	It("shifts every Info node by d and leaves other atoms untouched", func() {
		g := ir.And(ir.Info(0, 2), ir.PortGuard(ir.PortID(0)))
		shifted := g.Update(3)

		var got []int
		shifted.ForEachInfo(func(lo, hi int) { got = append(got, lo, hi) })
		Expect(got).To(Equal([]int{3, 5}))
	})
})

var _ = Describe("Guard.LiveStates", func() {
	It("marks a GuardTrue guard live at every cycle", func() {
		Expect(ir.True().LiveStates(4)).To(Equal([]bool{true, true, true, true}))
	})

	It("marks only the Info window live for a GuardInfo guard", func() {
		Expect(ir.Info(1, 3).LiveStates(4)).To(Equal([]bool{false, true, true, false}))
	})

	It("intersects Info windows under And", func() {
		g := ir.And(ir.Info(0, 3), ir.Info(1, 4))
		Expect(g.LiveStates(4)).To(Equal([]bool{false, true, true, false}))
	})

	It("unions Info windows under Or", func() {
		g := ir.Or(ir.Info(0, 1), ir.Info(3, 4))
		Expect(g.LiveStates(4)).To(Equal([]bool{true, false, false, true}))
	})
})
