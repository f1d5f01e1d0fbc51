package ir_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/fsmforge/ir"
	"github.com/sarchlab/fsmforge/primitives"
)

const regProgram = `
entrypoint: main
components:
  - name: main
    kind: dynamic
    signature:
      - {name: go, dir: in, width: 1}
      - {name: done, dir: out, width: 1}
      - {name: in, dir: in, width: 8}
    cells:
      - {name: r, prototype: std_reg, params: {WIDTH: 8}}
      - {name: hi, prototype: std_const, params: {WIDTH: 1, VALUE: 1}}
    groups:
      - name: do_write
        assignments:
          - {dst: r.in, src: in}
          - {dst: r.write_en, src: hi.out}
          - {dst: do_write.done, src: r.done}
    continuous:
      - {dst: done, src: r.done}
    control: {kind: enable, group: do_write}
`

var _ = Describe("LoadProgramYAML", func() {
	It("elaborates components, cells, groups and control from YAML", func() {
		comps, entry, err := ir.LoadProgramYAML([]byte(regProgram), primitives.Default())
		Expect(err).NotTo(HaveOccurred())
		Expect(entry).To(Equal("main"))

		main, ok := comps["main"]
		Expect(ok).To(BeTrue())
		Expect(main.Kind).To(Equal(ir.Dynamic))
		Expect(main.Cells).To(HaveLen(2))
		Expect(main.Groups).To(HaveLen(1))
		Expect(main.Control.Kind).To(Equal(ir.CEnable))

		writePort, ok := main.CellPortByName("r", "write_en")
		Expect(ok).To(BeTrue())

		g := main.Group(main.Control.Group)
		Expect(g.Assignments).To(HaveLen(3))
		found := false
		for _, a := range g.Assignments {
			if a.Dst == writePort {
				found = true
			}
		}
		Expect(found).To(BeTrue())
	})

	It("rejects an unknown cell prototype", func() {
		bad := `
entrypoint: main
components:
  - name: main
    signature: []
    cells:
      - {name: x, prototype: does_not_exist}
`
		_, _, err := ir.LoadProgramYAML([]byte(bad), primitives.Default())
		Expect(err).To(HaveOccurred())
	})

	It("resolves a sub-component cell's ports from an earlier component's signature", func() {
		nested := `
entrypoint: top
components:
  - name: leaf
    signature:
      - {name: go, dir: in, width: 1}
      - {name: done, dir: out, width: 1}
  - name: top
    signature:
      - {name: go, dir: in, width: 1}
      - {name: done, dir: out, width: 1}
    cells:
      - {name: inst, prototype: leaf}
    continuous:
      - {dst: inst.go, src: go}
      - {dst: done, src: inst.done}
`
		comps, _, err := ir.LoadProgramYAML([]byte(nested), primitives.Default())
		Expect(err).NotTo(HaveOccurred())
		top := comps["top"]
		Expect(top.Cells[0].Ports).To(HaveLen(2))
	})
})
