// Package axil implements an AXI-Lite bus-functional model, ported from
// original_source/examples/axil_ext/src/axil.h. This is example/user
// code (spec.md §1's "Non-goals: the core never implements a bus
// protocol") built entirely on the public task/trigger/handle surface —
// it imports no internal scheduler state.
package axil

import (
	"fmt"

	"github.com/benchsim/cocoro/internal/handle"
	"github.com/benchsim/cocoro/internal/task"
	"github.com/benchsim/cocoro/internal/trigger"
)

// Driver drives the write-address, write-data, write-response, and
// read-address/read-data channels of one AXI-Lite interface.
type Driver struct {
	clk *handle.Handle

	awvalid, awready, awaddr *handle.Handle
	wvalid, wready, wdata, wstrb *handle.Handle
	bvalid, bready, bresp       *handle.Handle
	arvalid, arready, araddr    *handle.Handle
	rvalid, rready, rdata, rresp *handle.Handle
}

// New looks up every AXI-Lite signal as a child of dut, by the naming
// convention axil.h uses (lower-case channel + direction, e.g. "awvalid").
func New(dut *handle.Handle) (*Driver, error) {
	d := &Driver{}
	fields := map[string]**handle.Handle{
		"clk": &d.clk,
		"awvalid": &d.awvalid, "awready": &d.awready, "awaddr": &d.awaddr,
		"wvalid": &d.wvalid, "wready": &d.wready, "wdata": &d.wdata, "wstrb": &d.wstrb,
		"bvalid": &d.bvalid, "bready": &d.bready, "bresp": &d.bresp,
		"arvalid": &d.arvalid, "arready": &d.arready, "araddr": &d.araddr,
		"rvalid": &d.rvalid, "rready": &d.rready, "rdata": &d.rdata, "rresp": &d.rresp,
	}
	for name, slot := range fields {
		h, err := dut.Child(name)
		if err != nil {
			return nil, fmt.Errorf("axil: %w", err)
		}
		*slot = h
	}
	return d, nil
}

func (d *Driver) edge(t *task.Task) error {
	return t.Await(trigger.RisingEdge{Signal: d.clk.Raw()})
}

// Reset drives every channel's valid/ready signals low and waits one
// clock edge, matching axil.h's reset().
func (d *Driver) Reset(t *task.Task) error {
	d.awvalid.Value().SetBool(false)
	d.wvalid.Value().SetBool(false)
	d.bready.Value().SetBool(false)
	d.arvalid.Value().SetBool(false)
	d.rready.Value().SetBool(false)
	return d.edge(t)
}

// Write drives one AXI-Lite write transaction to completion: address and
// data channels presented together, held until both awready and wready
// are observed high on the same edge, then the response channel is
// acknowledged. wstrb of 0 means "all bytes," matching axil.h's default.
func (d *Driver) Write(t *task.Task, addr, data, wstrb uint32) error {
	if wstrb == 0 {
		wstrb = 0xF
	}
	d.awaddr.Value().SetInt(int32(addr))
	d.awvalid.Value().SetBool(true)
	d.wdata.Value().SetInt(int32(data))
	d.wstrb.Value().SetInt(int32(wstrb))
	d.wvalid.Value().SetBool(true)

	for {
		if err := d.edge(t); err != nil {
			return err
		}
		if d.awready.Value().Bool() && d.wready.Value().Bool() {
			break
		}
	}
	d.awvalid.Value().SetBool(false)
	d.wvalid.Value().SetBool(false)

	d.bready.Value().SetBool(true)
	for {
		if err := d.edge(t); err != nil {
			return err
		}
		if d.bvalid.Value().Bool() {
			break
		}
	}
	d.bready.Value().SetBool(false)
	if resp := d.bresp.Value().Int32(); resp != 0 {
		return fmt.Errorf("axil: write to 0x%x: bresp=%d", addr, resp)
	}
	return nil
}

// Read drives one AXI-Lite read transaction to completion, returning the
// data word once rvalid is observed.
func (d *Driver) Read(t *task.Task, addr uint32) (uint32, error) {
	d.araddr.Value().SetInt(int32(addr))
	d.arvalid.Value().SetBool(true)

	for {
		if err := d.edge(t); err != nil {
			return 0, err
		}
		if d.arready.Value().Bool() {
			break
		}
	}
	d.arvalid.Value().SetBool(false)

	d.rready.Value().SetBool(true)
	for {
		if err := d.edge(t); err != nil {
			return 0, err
		}
		if d.rvalid.Value().Bool() {
			break
		}
	}
	d.rready.Value().SetBool(false)
	if resp := d.rresp.Value().Int32(); resp != 0 {
		return 0, fmt.Errorf("axil: read from 0x%x: rresp=%d", addr, resp)
	}
	return d.rdata.Value().Uint32(), nil
}
