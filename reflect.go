// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package serwb

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Updater is the interface that custom components built using reflection must implement.
// See MakePart.
//
type Updater interface {
	Update(*Circuit)
}

// MakePart wraps an Updater into a custom component.
// Input/output pins are identified by field tags.
//
// The field tag must be `hw:"in"` or `hw:"out"` to identify input and output
// pins. By default, the pin name is the field name in lowercase and the pin
// is one bit wide. A specific pin name and width can be forced by adding them
// in the tag: `hw:"in,pin_name,8"` or `hw:"out,,32"`.
//
// Pin fields must be of type int and are set to wire numbers when the part
// is mounted. Untagged fields are copied from t on every mount, so they can be
// used to pass configuration to the part. t may be a nil pointer.
//
func MakePart(t Updater) *PartSpec {
	typ := reflect.TypeOf(t)
	proto := reflect.ValueOf(t)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
		if proto.IsNil() {
			proto = reflect.Zero(typ)
		} else {
			proto = proto.Elem()
		}
	}
	if k := typ.Kind(); k != reflect.Struct {
		panic(errors.Errorf("unsupported type %q for %q", k, typ.Name()))
	}

	sp := &PartSpec{
		Name: typ.Name(),
	}

	fields := pinFields(typ)
	for _, f := range fields {
		p := Pin{f.pin, f.width}
		if f.input {
			sp.Inputs = append(sp.Inputs, p)
		} else {
			sp.Outputs = append(sp.Outputs, p)
		}
	}
	sp.Mount = func(s *Socket) []Component {
		v := reflect.New(typ)
		e := v.Elem()
		e.Set(proto)
		for _, f := range fields {
			e.Field(f.index).SetInt(int64(s.Pin(f.pin)))
		}
		u := v.Interface().(Updater)
		return []Component{u.Update}
	}
	return sp
}

type pinField struct {
	index int
	pin   string
	width int
	input bool
}

func pinFields(typ reflect.Type) []pinField {
	var fs []pinField
	n := typ.NumField()
	for i := 0; i < n; i++ {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup("hw")
		if !ok {
			continue
		}
		pf := pinField{index: i, pin: strings.ToLower(f.Name), width: 1}
		tv := strings.Split(tag, ",")
		switch tv[0] {
		case "in":
			pf.input = true
		case "out":
		default:
			panic(errors.Errorf("unsupported tag %q for field %q in %q", tag, f.Name, typ.Name()))
		}
		if len(tv) > 1 && tv[1] != "" {
			pf.pin = tv[1]
		}
		if len(tv) > 2 && tv[2] != "" {
			w, err := strconv.Atoi(tv[2])
			if err != nil || w < 1 || w > 64 {
				panic(errors.Errorf("invalid pin width %q for field %q in %q", tv[2], f.Name, typ.Name()))
			}
			pf.width = w
		}
		if f.Type.Kind() != reflect.Int {
			panic(errors.Errorf("unsupported type %q for field %q in %q", f.Type.Kind(), f.Name, typ.Name()))
		}
		fs = append(fs, pf)
	}
	return fs
}
