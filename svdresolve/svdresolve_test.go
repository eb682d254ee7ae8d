package svdresolve_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/svdmodel/internal/svd/diag"
	"github.com/sarchlab/svdmodel/internal/svd/record"
	"github.com/sarchlab/svdmodel/svdresolve"
	"github.com/sarchlab/svdmodel/testfixture"
)

func strp(s string) *string { return &s }

var _ = Describe("Resolve", func() {
	It("replicates a derived peripheral's registers and fields", func() {
		dev, sink, err := svdresolve.Resolve(context.Background(), testfixture.SampleDevice(), svdresolve.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(dev.Peripherals).To(HaveLen(2))

		timer0, timer1 := dev.Peripherals[0], dev.Peripherals[1]
		Expect(timer0.Name).To(Equal("TIMER0"))
		Expect(timer1.Name).To(Equal("TIMER1"))

		Expect(timer1.Registers).To(HaveLen(2))
		found := false
		for _, r := range timer1.Registers {
			if r.Name == "CTRL" {
				found = true
				Expect(r.Fields).To(HaveLen(2))
			}
		}
		Expect(found).To(BeTrue())

		// TIMER0's addressBlock omits protection, so exactly one
		// defaulted-attribute warning is expected — no other diagnostic
		// kind should appear for this well-formed device.
		for _, d := range sink.Diagnostics() {
			Expect(d.Kind).To(Equal(diag.KindDefaultedAttribute))
		}
	})

	It("inherits register properties down to fields", func() {
		dev, _, err := svdresolve.Resolve(context.Background(), testfixture.SampleDevice(), svdresolve.Options{})
		Expect(err).NotTo(HaveOccurred())

		timer0 := dev.Peripherals[0]
		Expect(timer0.Properties.Access.String()).To(Equal("read-write"))
		for _, r := range timer0.Registers {
			Expect(r.Properties.Size).NotTo(BeNil())
			Expect(*r.Properties.Size).To(Equal(uint32(32)))
		}
	})

	It("rejects an ambiguous derivedFrom", func() {
		devRec := &record.Device{
			Name: "AMBIG",
			Peripherals: []*record.Peripheral{
				{Name: "A", BaseAddress: strp("0x1000")},
				{Name: "A", BaseAddress: strp("0x2000")},
				{Name: "B", BaseAddress: strp("0x3000"), DerivedFrom: strp("A")},
			},
		}
		_, _, err := svdresolve.Resolve(context.Background(), devRec, svdresolve.Options{})
		Expect(err).To(HaveOccurred())
	})

	It("rejects an unresolved derivedFrom", func() {
		devRec := &record.Device{
			Name: "MISSING",
			Peripherals: []*record.Peripheral{
				{Name: "B", BaseAddress: strp("0x3000"), DerivedFrom: strp("GHOST")},
			},
		}
		_, _, err := svdresolve.Resolve(context.Background(), devRec, svdresolve.Options{})
		Expect(err).To(HaveOccurred())
	})

	It("rejects a derive cycle", func() {
		devRec := &record.Device{
			Name: "CYCLE",
			Peripherals: []*record.Peripheral{
				{Name: "A", BaseAddress: strp("0x1000"), DerivedFrom: strp("B")},
				{Name: "B", BaseAddress: strp("0x2000"), DerivedFrom: strp("A")},
			},
		}
		_, _, err := svdresolve.Resolve(context.Background(), devRec, svdresolve.Options{})
		Expect(err).To(HaveOccurred())
	})

	It("drops a reserved register with a warning instead of failing", func() {
		devRec := &record.Device{
			Name: "RESV",
			Peripherals: []*record.Peripheral{
				{
					Name:        "P",
					BaseAddress: strp("0x1000"),
					Properties:  record.RegisterPropertyGroup{Size: strp("32")},
					Registers: []*record.Register{
						{Name: "CTRL", AddressOffset: strp("0x0"), Properties: record.RegisterPropertyGroup{Size: strp("32")}},
						{Name: "Reserved", AddressOffset: strp("0x4"), Properties: record.RegisterPropertyGroup{Size: strp("32")}},
					},
				},
			},
		}
		dev, sink, err := svdresolve.Resolve(context.Background(), devRec, svdresolve.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(dev.Peripherals[0].Registers).To(HaveLen(1))
		Expect(dev.Peripherals[0].Registers[0].Name).To(Equal("CTRL"))

		kinds := sink.ByKind()
		Expect(kinds).To(HaveKey(diag.KindReservedDropped))
	})

	It("expands a dim-templated register into concrete instances", func() {
		devRec := &record.Device{
			Name: "DIMDEV",
			Peripherals: []*record.Peripheral{
				{
					Name:        "GPIO",
					BaseAddress: strp("0x50000000"),
					Properties:  record.RegisterPropertyGroup{Size: strp("32")},
					Registers: []*record.Register{
						{
							Name:          "PIN%s",
							AddressOffset: strp("0x0"),
							Properties:    record.RegisterPropertyGroup{Size: strp("32")},
							Dim: record.DimGroup{
								Dim:          strp("2"),
								DimIncrement: strp("4"),
								DimIndex:     strp("0,1"),
							},
						},
					},
				},
			},
		}
		dev, _, err := svdresolve.Resolve(context.Background(), devRec, svdresolve.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(dev.Peripherals[0].Registers).To(HaveLen(2))
		Expect(dev.Peripherals[0].Registers[0].Name).To(Equal("PIN0"))
		Expect(dev.Peripherals[0].Registers[1].Name).To(Equal("PIN1"))
		Expect(dev.Peripherals[0].Registers[1].AddressOffset).To(Equal(uint64(4)))
	})

	It("resolves a multi-component derivedFrom path crossing peripheral scope", func() {
		devRec := &record.Device{
			Name: "CROSS",
			Peripherals: []*record.Peripheral{
				{
					Name:        "PeripheralA",
					BaseAddress: strp("0x1000"),
					Properties:  record.RegisterPropertyGroup{Size: strp("32")},
					Registers: []*record.Register{
						{
							Name:          "RegisterB",
							AddressOffset: strp("0x0"),
							Properties:    record.RegisterPropertyGroup{Size: strp("32")},
							Fields: []*record.Field{
								{Name: "FieldC", BitOffset: strp("0"), BitWidth: strp("4")},
							},
						},
					},
				},
				{
					Name:        "PeripheralD",
					BaseAddress: strp("0x2000"),
					Properties:  record.RegisterPropertyGroup{Size: strp("32")},
					Registers: []*record.Register{
						{
							Name:          "RegisterE",
							AddressOffset: strp("0x0"),
							Properties:    record.RegisterPropertyGroup{Size: strp("32")},
							Fields: []*record.Field{
								{Name: "FieldF", DerivedFrom: strp("PeripheralA.RegisterB.FieldC")},
							},
						},
					},
				},
			},
		}
		dev, _, err := svdresolve.Resolve(context.Background(), devRec, svdresolve.Options{})
		Expect(err).NotTo(HaveOccurred())

		found := false
		for _, p := range dev.Peripherals {
			if p.Name != "PeripheralD" {
				continue
			}
			for _, r := range p.Registers {
				for _, f := range r.Fields {
					if f.Name == "FieldF" {
						found = true
						Expect(f.MSB - f.LSB + 1).To(Equal(uint32(4)))
					}
				}
			}
		}
		Expect(found).To(BeTrue())
	})

	It("promotes a configured diagnostic kind to a fatal error", func() {
		devRec := &record.Device{
			Name: "RESV",
			Peripherals: []*record.Peripheral{
				{
					Name:        "P",
					BaseAddress: strp("0x1000"),
					Properties:  record.RegisterPropertyGroup{Size: strp("32")},
					Registers: []*record.Register{
						{Name: "Reserved", AddressOffset: strp("0x0"), Properties: record.RegisterPropertyGroup{Size: strp("32")}},
					},
				},
			},
		}
		_, _, err := svdresolve.Resolve(context.Background(), devRec, svdresolve.Options{StrictReservedNames: true})
		Expect(err).To(HaveOccurred())
	})
})
