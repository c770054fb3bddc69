// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package align

import (
	"github.com/db47h/serwb"
	"github.com/rs/zerolog"
)

// Part wraps a Controller into a circuit part. Its pins are:
//
//	Inputs: valid, comma, invalid, idle, reset, inc, enable
//	Outputs: value[6], locked
//
// valid, comma, invalid and idle describe the group decoded during the
// previous cycle. The controller only runs while enable is high. value is
// meant to drive the value input of a bit-slip stage.
//
type Part struct {
	Valid   int `hw:"in"`
	Comma   int `hw:"in"`
	Invalid int `hw:"in"`
	Idle    int `hw:"in"`
	Reset   int `hw:"in"`
	Inc     int `hw:"in"`
	Enable  int `hw:"in"`
	Value   int `hw:"out,value,6"`
	Locked  int `hw:"out"`

	cfg  Config
	log  zerolog.Logger
	ctrl *Controller
}

// NewPart returns a NewPartFn for a controller part with the given
// configuration. Every mounted part gets its own Controller.
//
func NewPart(cfg Config, log zerolog.Logger) (serwb.NewPartFn, error) {
	if _, err := New(cfg, log); err != nil {
		return nil, err
	}
	return serwb.MakePart(&Part{cfg: cfg, log: log}).NewPart, nil
}

// Update implements serwb.Updater.
//
func (p *Part) Update(c *serwb.Circuit) {
	if p.ctrl == nil {
		// cfg has been checked by NewPart.
		p.ctrl, _ = New(p.cfg, p.log)
	}
	if c.AtTick() {
		switch {
		case c.Bit(p.Reset):
			p.ctrl.Reset()
		case c.Bit(p.Inc):
			p.ctrl.Increment()
		}
		p.ctrl.Enable(c.Bit(p.Enable))
		if c.Bit(p.Valid) {
			p.ctrl.Observe(Sample{
				Comma:   c.Bit(p.Comma),
				Invalid: c.Bit(p.Invalid),
				Idle:    c.Bit(p.Idle),
			})
		}
	}
	c.Set(p.Value, uint64(p.ctrl.Offset()))
	c.SetBit(p.Locked, p.ctrl.State() == Locked)
}
