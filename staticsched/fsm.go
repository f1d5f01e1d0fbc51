// Package staticsched realizes a static schedule: given one or more static
// groups sharing a single counter, it builds the StaticFSM register, range
// queries, and increment logic described in §4.3, and allocates/colours
// counters across islands per §4.3.3.
package staticsched

import (
	"fmt"

	"github.com/sarchlab/fsmforge/ir"
)

// Encoding is the bit-pattern a StaticFSM's counter uses.
type Encoding int

const (
	Binary Encoding = iota
	OneHot
)

func (e Encoding) String() string {
	if e == OneHot {
		return "one-hot"
	}
	return "binary"
}

// DefaultOneHotCutoff mirrors --one-hot-cutoff's default.
const DefaultOneHotCutoff = 3

// EncodingFor picks Binary/OneHot the way --one-hot-cutoff does: one-hot
// below or at the cutoff, binary above it.
func EncodingFor(numStates, oneHotCutoff int) Encoding {
	if numStates > oneHotCutoff {
		return Binary
	}
	return OneHot
}

type binPorts struct{ left, right, out ir.PortID }
type sliceResult struct{ in, out ir.PortID }

// StaticFSM is a single counter register plus its memoized range queries.
type StaticFSM struct {
	comp     *ir.Component
	cellID   ir.CellID
	inPort   ir.PortID
	writeEn  ir.PortID
	outPort  ir.PortID
	bitwidth uint64
	numStates int
	encoding Encoding

	queries    map[[2]int]ir.PortID
	constCache map[[2]uint64]ir.PortID
}

// bitWidthFrom returns the number of bits needed to represent the integers
// [0, n), i.e. ceil(log2(n)), floored at 1 bit.
func bitWidthFrom(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	var bits uint64
	for v := n - 1; v > 0; v >>= 1 {
		bits++
	}
	return bits
}

// NewStaticFSM allocates a fresh counter register sized for numStates states
// under the given encoding.
func NewStaticFSM(comp *ir.Component, numStates int, encoding Encoding) *StaticFSM {
	var bitwidth uint64
	if encoding == OneHot {
		bitwidth = uint64(numStates)
		if bitwidth == 0 {
			bitwidth = 1
		}
	} else {
		bitwidth = bitWidthFrom(uint64(numStates + 1))
	}

	cell := ir.Cell{Name: comp.Names().Gen("fsm"), Prototype: "std_reg", Params: map[string]uint64{"WIDTH": bitwidth}}
	cell.Attrs.SetBool(ir.AttrGenerated)
	cid := comp.AddCell(cell)
	in := comp.AddCellPort(cid, "in", ir.In, ir.Width{Fixed: bitwidth})
	writeEn := comp.AddCellPort(cid, "write_en", ir.In, ir.Width{Fixed: 1})
	out := comp.AddCellPort(cid, "out", ir.Out, ir.Width{Fixed: bitwidth})
	comp.AddCellPort(cid, "clk", ir.In, ir.Width{Fixed: 1})
	comp.AddCellPort(cid, "reset", ir.In, ir.Width{Fixed: 1})
	comp.AddCellPort(cid, "done", ir.Out, ir.Width{Fixed: 1})

	return &StaticFSM{
		comp: comp, cellID: cid, inPort: in, writeEn: writeEn, outPort: out,
		bitwidth: bitwidth, numStates: numStates, encoding: encoding,
		queries:    make(map[[2]int]ir.PortID),
		constCache: make(map[[2]uint64]ir.PortID),
	}
}

// Bitwidth returns the counter register's width.
func (f *StaticFSM) Bitwidth() uint64 { return f.bitwidth }

// CellName returns the unique identifier of the underlying register cell.
func (f *StaticFSM) CellName() string { return f.comp.Cell(f.cellID).Name }

func (f *StaticFSM) constPortAt(value, width uint64) ir.PortID {
	key := [2]uint64{value, width}
	if p, ok := f.constCache[key]; ok {
		return p
	}
	cell := ir.Cell{Name: f.comp.Names().Gen(fmt.Sprintf("c%d", value)), Prototype: "std_const", Params: map[string]uint64{"VALUE": value, "WIDTH": width}}
	cell.Attrs.SetBool(ir.AttrGenerated)
	cid := f.comp.AddCell(cell)
	out := f.comp.AddCellPort(cid, "out", ir.Out, ir.Width{Fixed: width})
	f.constCache[key] = out
	return out
}

func (f *StaticFSM) constPort(value uint64) ir.PortID { return f.constPortAt(value, f.bitwidth) }

func (f *StaticFSM) addBitSlice(start, end, outWidth uint64) sliceResult {
	cell := ir.Cell{
		Name:      f.comp.Names().Gen("slice"),
		Prototype: "std_bit_slice",
		Params: map[string]uint64{
			"IN_WIDTH": f.bitwidth, "LO": start, "HI": end, "OUT_WIDTH": outWidth,
		},
	}
	cell.Attrs.SetBool(ir.AttrGenerated)
	cid := f.comp.AddCell(cell)
	in := f.comp.AddCellPort(cid, "in", ir.In, ir.Width{Fixed: f.bitwidth})
	out := f.comp.AddCellPort(cid, "out", ir.Out, ir.Width{Fixed: outWidth})
	return sliceResult{in: in, out: out}
}

func (f *StaticFSM) addAdder() binPorts {
	cell := ir.Cell{Name: f.comp.Names().Gen("adder"), Prototype: "std_add", Params: map[string]uint64{"WIDTH": f.bitwidth}}
	cell.Attrs.SetBool(ir.AttrGenerated)
	cid := f.comp.AddCell(cell)
	left := f.comp.AddCellPort(cid, "left", ir.In, ir.Width{Fixed: f.bitwidth})
	right := f.comp.AddCellPort(cid, "right", ir.In, ir.Width{Fixed: f.bitwidth})
	out := f.comp.AddCellPort(cid, "out", ir.Out, ir.Width{Fixed: f.bitwidth})
	return binPorts{left, right, out}
}

func (f *StaticFSM) addShifter() binPorts {
	cell := ir.Cell{Name: f.comp.Names().Gen("lsh"), Prototype: "std_lsh", Params: map[string]uint64{"WIDTH": f.bitwidth}}
	cell.Attrs.SetBool(ir.AttrGenerated)
	cid := f.comp.AddCell(cell)
	left := f.comp.AddCellPort(cid, "left", ir.In, ir.Width{Fixed: f.bitwidth})
	right := f.comp.AddCellPort(cid, "right", ir.In, ir.Width{Fixed: f.bitwidth})
	out := f.comp.AddCellPort(cid, "out", ir.Out, ir.Width{Fixed: f.bitwidth})
	return binPorts{left, right, out}
}

// oneHotQuery builds (or retrieves the memoized) wire for a one-hot range
// query, following the zero-state special case: state 0 is all-zero bits, so
// membership can't be tested by checking a single one-hot bit.
func (f *StaticFSM) oneHotQuery(lo, hi int) ir.PortID {
	key := [2]int{lo, hi}
	if port, ok := f.queries[key]; ok {
		return port
	}

	wire := ir.Cell{Name: f.comp.Names().Gen(fmt.Sprintf("bw_%d_%d", lo, hi)), Prototype: "std_wire", Params: map[string]uint64{"WIDTH": 1}}
	wire.Attrs.SetBool(ir.AttrGenerated)
	wid := f.comp.AddCell(wire)
	win := f.comp.AddCellPort(wid, "in", ir.In, ir.Width{Fixed: 1})
	wout := f.comp.AddCellPort(wid, "out", ir.Out, ir.Width{Fixed: 1})
	signalOn := f.constPortAt(1, 1)

	var assigns []ir.Assignment
	switch {
	case lo == 0 && hi == 1:
		const0 := f.constPort(0)
		fsmEq0 := ir.Comp(ir.CompEq, f.outPort, const0)
		assigns = []ir.Assignment{ir.Guarded(win, signalOn, fsmEq0)}
	case lo == 0:
		const0 := f.constPort(0)
		fsmEq0 := ir.Comp(ir.CompEq, f.outPort, const0)
		outWidth := uint64(hi - 1)
		slicer := f.addBitSlice(0, uint64(hi-2), outWidth)
		constSlice0 := f.constPortAt(0, outWidth)
		sliceNeq0 := ir.Comp(ir.CompNeq, slicer.out, constSlice0)
		check := ir.Or(fsmEq0, sliceNeq0)
		assigns = []ir.Assignment{
			ir.NewAssignment(slicer.in, f.outPort),
			ir.Guarded(win, signalOn, check),
		}
	default:
		outWidth := uint64(hi - lo)
		slicer := f.addBitSlice(uint64(lo-1), uint64(hi-2), outWidth)
		constSlice0 := f.constPortAt(0, outWidth)
		sliceNeq0 := ir.Comp(ir.CompNeq, slicer.out, constSlice0)
		assigns = []ir.Assignment{
			ir.NewAssignment(slicer.in, f.outPort),
			ir.Guarded(win, signalOn, sliceNeq0),
		}
	}

	f.comp.Continuous = append(f.comp.Continuous, assigns...)
	f.queries[key] = wout
	return wout
}

// QueryBetween returns the guard "lo <= counter < hi", building whatever
// query hardware the encoding requires the first time a given interval is
// asked for.
func (f *StaticFSM) QueryBetween(lo, hi int) *ir.Guard {
	if f.encoding == OneHot {
		return ir.PortGuard(f.oneHotQuery(lo, hi))
	}
	switch {
	case lo+1 == hi:
		return ir.Comp(ir.CompEq, f.outPort, f.constPort(uint64(lo)))
	case lo == 0:
		return ir.Comp(ir.CompLt, f.outPort, f.constPort(uint64(hi)))
	default:
		return ir.And(
			ir.Comp(ir.CompGe, f.outPort, f.constPort(uint64(lo))),
			ir.Comp(ir.CompLt, f.outPort, f.constPort(uint64(hi))),
		)
	}
}

// CountToN returns the assignments that make the counter count 0..n and
// reset to 0, optionally gated by incrCondition (nil means count
// unconditionally, as a plain island's counter does).
func (f *StaticFSM) CountToN(n int, incrCondition *ir.Guard) []ir.Assignment {
	signalOn := f.constPortAt(1, 1)
	constOne := f.constPort(1)
	firstState := f.constPort(0)
	finalState := f.constPort(uint64(n))

	var finalStateGuard *ir.Guard
	if f.encoding == Binary {
		finalStateGuard = ir.Comp(ir.CompEq, f.outPort, finalState)
	} else {
		finalStateGuard = ir.PortGuard(f.oneHotQuery(n, n+1))
	}
	notFinal := ir.Not(finalStateGuard)

	if incrCondition != nil {
		// One-hot states advance by a left shift, binary ones by an add.
		var adder binPorts
		if f.encoding == OneHot {
			adder = f.addShifter()
		} else {
			adder = f.addAdder()
		}
		firstStateGuard := ir.Comp(ir.CompEq, f.outPort, firstState)
		condAndFirst := ir.And(incrCondition, firstStateGuard)
		notFirst := ir.Comp(ir.CompNeq, f.outPort, firstState)
		inBetween := ir.And(notFirst, notFinal)
		return []ir.Assignment{
			ir.NewAssignment(adder.left, f.outPort),
			ir.NewAssignment(adder.right, constOne),
			ir.NewAssignment(f.writeEn, signalOn),
			ir.Guarded(f.inPort, constOne, condAndFirst),
			ir.Guarded(f.inPort, adder.out, inBetween),
			ir.Guarded(f.inPort, firstState, finalStateGuard),
		}
	}

	if f.encoding == Binary {
		adder := f.addAdder()
		return []ir.Assignment{
			ir.NewAssignment(adder.left, f.outPort),
			ir.NewAssignment(adder.right, constOne),
			ir.NewAssignment(f.writeEn, signalOn),
			ir.Guarded(f.inPort, adder.out, notFinal),
			ir.Guarded(f.inPort, firstState, finalStateGuard),
		}
	}

	// One-hot. The 0->1 transition can't be expressed as a left-shift of the
	// all-zero state, so it's special-cased.
	if n == 0 {
		return []ir.Assignment{
			ir.NewAssignment(f.writeEn, signalOn),
			ir.NewAssignment(f.inPort, firstState),
		}
	}
	fsmConst0 := f.constPort(0)
	fsmConst1 := f.constPort(1)
	fsmEq0 := ir.Comp(ir.CompEq, f.outPort, fsmConst0)
	shifter := f.addShifter()
	incrGuard := ir.And(notFinal, ir.Not(fsmEq0))
	return []ir.Assignment{
		ir.NewAssignment(shifter.left, f.outPort),
		ir.NewAssignment(shifter.right, constOne),
		ir.NewAssignment(f.writeEn, signalOn),
		ir.Guarded(f.inPort, fsmConst1, fsmEq0),
		ir.Guarded(f.inPort, shifter.out, incrGuard),
		ir.Guarded(f.inPort, firstState, finalStateGuard),
	}
}
