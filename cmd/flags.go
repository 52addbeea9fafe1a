package cmd

import (
	"strconv"

	"github.com/pkg/errors"
)

// onceString is a pflag.Value that errors if Set is called more than
// once: each flag may appear at most once, and duplicates are errors.
type onceString struct {
	name  string
	value string
	set   bool
}

func (o *onceString) String() string { return o.value }
func (o *onceString) Type() string   { return "string" }

func (o *onceString) Set(s string) error {
	if o.set {
		return errors.Errorf("flag -%s may only be given once", o.name)
	}
	o.value = s
	o.set = true
	return nil
}

// onceInt is onceString's integer counterpart, used for -t.
type onceInt struct {
	name  string
	value int
	set   bool
}

func (o *onceInt) String() string { return strconv.Itoa(o.value) }
func (o *onceInt) Type() string   { return "int" }

func (o *onceInt) Set(s string) error {
	if o.set {
		return errors.Errorf("flag -%s may only be given once", o.name)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return errors.Errorf("flag -%s: %q is not a valid integer", o.name, s)
	}
	o.value = n
	o.set = true
	return nil
}
