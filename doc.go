// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package serwb models the link layer of SerWB, a SerDes based board-to-board
link, as a set of clocked parts running on a small circuit simulator.

The simulator is the core of this package. A Circuit is one clock domain: a
set of components (closures) updating wires that carry up to 64 bits each.
Parts are described by a PartSpec, composed into chips with Chip, and wired
with connection strings such as "in=q, out=group". Clocked parts latch their
inputs on the rising edge of the built-in clk wire (Circuit.AtTick).

The link itself lives in sub-packages:

	code8b10b  8b10b symbol codec with running disparity
	hwlib      reusable parts: probes, registers, muxes, width converters, bit-slip
	align      bit-slip offset search controller
	phy        TX framer, RX deframer and link-state detection, link harness
	transport  abstract byte-wide bit transport between two clock domains
	trace      per-cycle signal recorder
	config     TOML configuration

The serwbsim command in cmd/serwbsim runs a whole link from the command line.

The transmit and receive sides are separate circuits: they share no wires and
only exchange bytes through a transport.
*/
package serwb
