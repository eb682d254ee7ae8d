// Package testfixture builds small, hand-written record.Device trees
// for exercising svdresolve.Resolve without an XML front end (XML
// tokenization is explicitly out of scope, §1). Used by the
// cmd/svdresolve sample and by the pipeline-level Ginkgo specs.
package testfixture

import "github.com/sarchlab/svdmodel/internal/svd/record"

func strp(s string) *string { return &s }

// SampleDevice returns a small two-peripheral device: TIMER0 declares
// its registers directly, and TIMER1 derives from TIMER0 at a
// different base address, replicating CTRL/STATUS and their fields
// (4.2, 4.3 item 2).
func SampleDevice() *record.Device {
	ctrl := &record.Register{
		Name:          "CTRL",
		Description:   strp("Control register"),
		AddressOffset: strp("0x0"),
		Properties: record.RegisterPropertyGroup{
			Size:   strp("32"),
			Access: strp("read-write"),
		},
		Fields: []*record.Field{
			{
				Name:        "EN",
				Description: strp("Timer enable"),
				BitOffset:   strp("0"),
				BitWidth:    strp("1"),
			},
			{
				Name:       "MODE",
				BitOffset:  strp("1"),
				BitWidth:   strp("2"),
				EnumeratedValueContainers: []*record.EnumeratedValueContainer{
					{
						EnumeratedValues: []*record.EnumeratedValue{
							{Name: "ONESHOT", Value: strp("0")},
							{Name: "PERIODIC", Value: strp("1")},
						},
					},
				},
			},
		},
	}

	status := &record.Register{
		Name:          "STATUS",
		Description:   strp("Status register"),
		AddressOffset: strp("0x4"),
		Properties: record.RegisterPropertyGroup{
			Size:   strp("32"),
			Access: strp("read-only"),
		},
		Fields: []*record.Field{
			{Name: "BUSY", BitOffset: strp("0"), BitWidth: strp("1")},
		},
	}

	timer0 := &record.Peripheral{
		Name:        "TIMER0",
		Description: strp("Timer 0"),
		BaseAddress: strp("0x40000000"),
		Properties: record.RegisterPropertyGroup{
			Size: strp("32"),
		},
		AddressBlocks: []*record.AddressBlock{
			{Offset: strp("0x0"), Size: strp("0x400"), Usage: strp("registers")},
		},
		Registers: []*record.Register{ctrl, status},
	}

	timer1 := &record.Peripheral{
		Name:        "TIMER1",
		BaseAddress: strp("0x40001000"),
		DerivedFrom: strp("TIMER0"),
	}

	return &record.Device{
		Name:        "ATSAMPLE",
		Vendor:      strp("Sample Silicon"),
		Description: strp("Sample device for resolver exercises"),
		CPU: &record.CPU{
			Name:     "CM4",
			Revision: strp("r0p1"),
			Endian:   strp("little"),
		},
		Properties: record.RegisterPropertyGroup{
			Size:       strp("32"),
			Access:     strp("read-write"),
			ResetValue: strp("0x0"),
			ResetMask:  strp("0xFFFFFFFF"),
		},
		Peripherals: []*record.Peripheral{timer0, timer1},
	}
}
