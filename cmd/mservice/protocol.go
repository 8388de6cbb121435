package main

import (
	"context"
	"fmt"
	"log"

	"github.com/Comcast/casematch/core"
	. "github.com/Comcast/casematch/util/testutil"
)

// SOp is a Service Operation.
//
// Only one of Make, Rem, GetTable, or NOp should have value.
type SOp struct {
	// Make gives the id of a namespace to be created.
	Make string `json:"make,omitempty"`

	// Rem gives the id of the namespace to be removed.
	Rem string `json:"rem,omitempty"`

	// GetTable gets the source of a Table.
	GetTable *GetTableOp `json:"getTable,omitempty" yaml:",omitempty"`

	// Error will hold an error (if any) that results from
	// processing this operation.
	Error error `json:"-" yaml:"-"`

	// Err will hold a string representation of an error (if any)
	// that results from processing this operation.
	Err string `json:"err,omitempty" yaml:",omitempty"`

	// NOp gives a namespace operation.
	NOp *NOp `json:"nop,omitempty" yaml:"nop,omitempty"`
}

// erred is a utility function to return values to assign to operation
// Error and Err fields.
func erred(err error) (error, string) {
	if err == nil {
		return nil, ""
	}
	return err, err.Error()
}

func (o *SOp) wrapForFirehose(tag string) map[string]*SOp {
	return map[string]*SOp{
		tag: o,
	}
}

func (o *SOp) Do(ctx context.Context, s *Service) error {

	var err error
	if o.Make != "" {
		err = s.MakeNamespace(ctx, o.Make)
	} else if o.Rem != "" {
		err = s.RemNamespace(ctx, o.Rem)
	} else if o.GetTable != nil {
		err = o.GetTable.Do(ctx, s)
	} else if o.NOp != nil {
		err = o.NOp.Do(ctx, s)
	} else {
		err = fmt.Errorf("not implemented: %s", JS(o))
	}

	if err != nil && o.Error == nil {
		o.Error, o.Err = erred(err)
	}

	if s.firehose != nil {
		select {
		case s.firehose <- o.wrapForFirehose("op"):
		default:
			log.Printf("s.firehose blocked")
		}
	}

	return o.Error
}

type GetTableOp struct {
	Ns    string      `json:"ns"`
	Id    string      `json:"id"`
	Table *core.Table `json:"table,omitempty" yaml:",omitempty"`
}

func (o *GetTableOp) Do(ctx context.Context, s *Service) error {
	t, err := s.GetTable(ctx, o.Ns, o.Id)
	if err == nil {
		o.Table = t
	}
	return err
}

// NOp is a Namespace Operation.
//
// In normal use, only one of Put, Rem, or Eval should be given.
type NOp struct {
	// Ns gives the id of the target namespace.
	Ns string `json:"ns"`

	// Put adds or updates a Table.
	Put *OpPut `json:"put,omitempty" yaml:",omitempty"`

	// Rem removes a Table.
	Rem *OpRem `json:"rem,omitempty" yaml:",omitempty"`

	// Eval sends a subject to the namespace's Tables.
	Eval *OpEval `json:"eval,omitempty" yaml:",omitempty"`
}

func (o *NOp) Do(ctx context.Context, s *Service) error {
	if o.Put != nil {
		return o.Put.Do(ctx, s, o.Ns)
	}
	if o.Rem != nil {
		return o.Rem.Do(ctx, s, o.Ns)
	}
	if o.Eval != nil {
		return o.Eval.Do(ctx, s, o.Ns)
	}
	return fmt.Errorf("empty namespace operation")
}

type OpPut struct {
	// Oid is the optional operation id.  A "transaction" id.
	Oid string `json:"oid,omitempty" yaml:",omitempty"`

	// Table is the Table to add or update.  Its Id is required.
	Table *core.Table `json:"table"`

	// Error will hold an error (if any) that results from
	// processing this operation.
	Error error `json:"-" yaml:"-"`

	// Err will hold a string representation of an error (if any)
	// that results from processing this operation.
	Err string `json:"err,omitempty" yaml:",omitempty"`
}

func (o *OpPut) Do(ctx context.Context, s *Service, ns string) error {
	if o.Table == nil {
		return fmt.Errorf("no table given")
	}
	o.Error, o.Err = erred(s.PutTable(ctx, ns, o.Table))
	return o.Error
}

type OpRem struct {
	// Oid is the optional operation id.  A "transaction" id.
	Oid string `json:"oid,omitempty" yaml:",omitempty"`

	// Id is the id of the Table to remove.
	Id string `json:"id"`

	Error error  `json:"-" yaml:"-"`
	Err   string `json:"err,omitempty" yaml:",omitempty"`
}

func (o *OpRem) Do(ctx context.Context, s *Service, ns string) error {
	o.Error, o.Err = erred(s.RemTable(ctx, ns, o.Id))
	return o.Error
}

type OpEval struct {
	// Oid is the optional operation id.  A "transaction" id.
	Oid string `json:"oid,omitempty" yaml:",omitempty"`

	// Id optionally names the one Table that should evaluate the
	// subject.  Otherwise all of the namespace's Tables do.
	Id string `json:"id,omitempty" yaml:",omitempty"`

	// Subject is the value to evaluate.
	Subject interface{} `json:"subject"`

	// Outcomes are the results by Table id.
	Outcomes map[string]*core.Outcome `json:"outcomes,omitempty" yaml:",omitempty"`

	Render bool `json:"render,omitempty" yaml:",omitempty"`

	Error error  `json:"-" yaml:"-"`
	Err   string `json:"err,omitempty" yaml:",omitempty"`
}

func (o *OpEval) Do(ctx context.Context, s *Service, ns string) error {
	var err error
	o.Outcomes, err = s.Eval(ctx, ns, o.Id, o.Subject)
	o.Error, o.Err = erred(err)

	if o.Render && o.Outcomes != nil {
		Render("op", o.Outcomes)
	}
	return err
}
