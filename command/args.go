package command

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/nicebartender/runbot/errs"
)

// Args holds the raw captures of a successful match.
type Args struct {
	pattern *Pattern
	values  map[string][]string
}

func (a *Args) add(t Token, v string) {
	if t.Name == "" {
		return
	}
	a.values[t.Name] = append(a.values[t.Name], v)
}

// Has reports whether the named capture matched at least once.
func (a Args) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

// String returns the first value of the named capture, or "".
func (a Args) String(name string) string {
	if vs := a.values[name]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Strings returns every value of the named capture.
func (a Args) Strings(name string) []string {
	vs := a.values[name]
	out := make([]string, len(vs))
	copy(out, vs)
	return out
}

// Parsable lists the types a capture can be converted to.
type Parsable interface {
	~string | ~bool |
		~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Value converts the first value of the named capture. ok is false when the
// capture did not match.
func Value[T Parsable](a Args, name string) (v T, ok bool, err error) {
	vs := a.values[name]
	if len(vs) == 0 {
		return v, false, nil
	}
	err = setScalar(reflect.ValueOf(&v).Elem(), vs[0])
	return v, true, err
}

// Values converts every value of the named capture.
func Values[T Parsable](a Args, name string) ([]T, error) {
	vs := a.values[name]
	out := make([]T, len(vs))
	for i, s := range vs {
		if err := setScalar(reflect.ValueOf(&out[i]).Elem(), s); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Bind copies the captures into the struct pointed to by dst. Fields are
// matched by their `arg` tag, or by case-insensitive field name. A capture
// that cannot be converted to its field type fails the bind.
func (a Args) Bind(dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return errs.Params("bind", "destination must be a pointer to a struct, got %T", dst)
	}
	if a.pattern == nil {
		return errs.State("bind", "args did not come from a match")
	}
	fields, err := bindFields(a.pattern, rv.Elem().Type())
	if err != nil {
		return err
	}
	st := rv.Elem()
	for _, c := range a.pattern.captures {
		fv := st.FieldByIndex(fields[c.Name])
		vs := a.values[c.Name]
		if err := assign(fv, vs); err != nil {
			return fmt.Errorf("bind %s: %w", c.Name, err)
		}
	}
	return nil
}

// CheckBinding verifies that t, a struct type, has a compatible field for
// every named capture of p.
func CheckBinding(p *Pattern, t reflect.Type) error {
	_, err := bindFields(p, t)
	return err
}

func bindFields(p *Pattern, t reflect.Type) (map[string][]int, error) {
	if t.Kind() != reflect.Struct {
		return nil, errs.Params("bind", "%s is not a struct", t)
	}
	byName := make(map[string][]int)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Tag.Get("arg")
		if name == "-" {
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		byName[name] = f.Index
	}

	out := make(map[string][]int, len(p.captures))
	for _, c := range p.captures {
		idx, ok := byName[c.Name]
		if !ok {
			idx, ok = byName[strings.ToLower(c.Name)]
		}
		if !ok {
			return nil, errs.Params("bind", "pattern %q: %s has no field for capture %q", p.source, t, c.Name)
		}
		ft := t.FieldByIndex(idx).Type
		if err := checkField(c, ft); err != nil {
			return nil, errs.Params("bind", "pattern %q: field for %q: %v", p.source, c.Name, err)
		}
		out[c.Name] = idx
	}
	return out, nil
}

func checkField(c Capture, ft reflect.Type) error {
	switch {
	case c.Quantifier.Repeated():
		if ft.Kind() != reflect.Slice || !isScalar(ft.Elem()) {
			return fmt.Errorf("%s%s needs a slice of scalars, got %s", c.Name, c.Quantifier, ft)
		}
	case c.Quantifier == Optional:
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if !isScalar(ft) {
			return fmt.Errorf("%s? needs a scalar or pointer to scalar, got %s", c.Name, ft)
		}
	default:
		if !isScalar(ft) {
			return fmt.Errorf("%s needs a scalar, got %s", c.Name, ft)
		}
	}
	return nil
}

func isScalar(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func assign(fv reflect.Value, vs []string) error {
	switch fv.Kind() {
	case reflect.Slice:
		out := reflect.MakeSlice(fv.Type(), len(vs), len(vs))
		for i, s := range vs {
			if err := setScalar(out.Index(i), s); err != nil {
				return err
			}
		}
		fv.Set(out)
		return nil
	case reflect.Pointer:
		if len(vs) == 0 {
			fv.Set(reflect.Zero(fv.Type()))
			return nil
		}
		p := reflect.New(fv.Type().Elem())
		if err := setScalar(p.Elem(), vs[0]); err != nil {
			return err
		}
		fv.Set(p)
		return nil
	default:
		if len(vs) == 0 {
			fv.Set(reflect.Zero(fv.Type()))
			return nil
		}
		return setScalar(fv, vs[0])
	}
}

func setScalar(v reflect.Value, s string) error {
	switch v.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetFloat(f)
	default:
		return fmt.Errorf("unsupported type %s", v.Type())
	}
	return nil
}
