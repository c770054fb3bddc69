// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwtest_test

import (
	"testing"

	hw "github.com/db47h/serwb"
	hl "github.com/db47h/serwb/hwlib"
	"github.com/db47h/serwb/hwtest"
)

func TestComparePart(t *testing.T) {
	mux, err := hw.Chip("custom_mux", hw.In("a, b, sel"), hw.Out("out"), hw.Parts{
		hl.Not("in=sel, out=nsel"),
		hl.And("a=a, b=nsel, out=w0"),
		hl.And("a=b, b=sel, out=w1"),
		hl.Or("a=w0, b=w1, out=out"),
	})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	hwtest.ComparePart(t, 8, hl.Mux, mux)
}

func TestCompareNWay(t *testing.T) {
	or3, err := hw.Chip("custom_or3", hw.In("in0, in1, in2"), hw.Out("out"), hw.Parts{
		hl.Or("a=in0, b=in1, out=w"),
		hl.Or("a=w, b=in2, out=out"),
	})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	hwtest.ComparePart(t, 8, hl.OrNWay(3), or3)

	and3, err := hw.Chip("custom_and3", hw.In("in0, in1, in2"), hw.Out("out"), hw.Parts{
		hl.And("a=in0, b=in1, out=w"),
		hl.And("a=w, b=in2, out=out"),
	})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	hwtest.ComparePart(t, 8, hl.AndNWay(3), and3)
}

func TestCompareSequential(t *testing.T) {
	reg, err := hw.Chip("custom_reg", hw.In("in[12], load"), hw.Out("out[12]"), hw.Parts{
		hl.MuxN(12)("a=out, b=in, sel=load, out=next"),
		hl.DFFN(12)("in=next, out=out"),
	})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	hwtest.ComparePart(t, 8, hl.Register(12), reg)

	delay, err := hw.Chip("custom_delay", hw.In("in"), hw.Out("out"), hw.Parts{
		hl.DFF("in=in, out=d0"),
		hl.DFF("in=d0, out=d1"),
		hl.DFF("in=d1, out=out"),
	})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	hwtest.ComparePart(t, 4, hl.Delay(3), delay)
}

// slip is a bit by bit model of a 40 bits bit-slip stage.
type slip struct {
	In    int `hw:"in,,40"`
	CE    int `hw:"in,ce"`
	Value int `hw:"in,value,6"`
	Out   int `hw:"out,,40"`

	prev, cur, out uint64
}

func (s *slip) Update(c *hw.Circuit) {
	if c.AtTick() {
		if v := int(c.Get(s.Value)); v < 40 {
			var o uint64
			for i := 0; i < 40; i++ {
				b := s.prev >> uint(v+i)
				if v+i >= 40 {
					b = s.cur >> uint(v+i-40)
				}
				o |= (b & 1) << uint(i)
			}
			s.out = o
		}
		if c.Bit(s.CE) {
			s.prev, s.cur = s.cur, c.Get(s.In)
		}
	}
	c.Set(s.Out, s.out)
}

func TestCompareBitSlip(t *testing.T) {
	ref := hw.MakePart((*slip)(nil))
	ref.Name = "BITSLIP40"
	hwtest.ComparePart(t, 4, hl.BitSlip(40), ref.NewPart)
}
