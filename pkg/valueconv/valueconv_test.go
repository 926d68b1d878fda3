package valueconv_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/nativebridge/pkg/value"
	"github.com/marmos91/nativebridge/pkg/valueconv"
)

type Address struct {
	City string
	Zip  string `value:"postal_code"`
}

type Person struct {
	FirstName string
	Age       int
	Home      Address
	Nickname  string `value:",skip_if_null"`
}

func TestEncodeStructUsesRenamePolicyAndLexicographicOrder(t *testing.T) {
	c := valueconv.New(valueconv.SnakeCase)
	v, err := c.Encode(Person{FirstName: "Ada", Age: 30, Home: Address{City: "London", Zip: "E1"}})
	require.NoError(t, err)

	pairs, ok := v.Pairs()
	require.True(t, ok)

	var keys []string
	for _, p := range pairs {
		k, _ := p.Key.StrVal()
		keys = append(keys, k)
	}
	// "age" < "first_name" < "home" lexicographically; nickname was
	// skipped because it was the zero value.
	require.Equal(t, []string{"age", "first_name", "home"}, keys)
}

func TestDecodeStructRoundTrip(t *testing.T) {
	c := valueconv.New(valueconv.SnakeCase)
	in := Person{FirstName: "Grace", Age: 85, Home: Address{City: "NYC", Zip: "10001"}}

	v, err := c.Encode(in)
	require.NoError(t, err)

	var out Person
	require.NoError(t, c.Decode(v, &out))

	require.Equal(t, in.FirstName, out.FirstName)
	require.Equal(t, in.Age, out.Age)
	require.Equal(t, in.Home.City, out.Home.City)
	require.Equal(t, in.Home.Zip, out.Home.Zip)
}

type Point struct {
	X int `value:",tuple"`
	Y int `value:",tuple"`
}

func TestTupleStructEncodesAsPositionalList(t *testing.T) {
	c := valueconv.New(valueconv.AsIs)
	v, err := c.Encode(Point{X: 1, Y: 2})
	require.NoError(t, err)

	list, ok := v.List()
	require.True(t, ok)
	require.Len(t, list, 2)
	x, _ := list[0].Int()
	y, _ := list[1].Int()
	require.Equal(t, int64(1), x)
	require.Equal(t, int64(2), y)
}

type Meters struct {
	Value float64 `value:",tuple"`
}

func TestSingleFieldTupleStructPassesThroughInnerValue(t *testing.T) {
	c := valueconv.New(valueconv.AsIs)
	v, err := c.Encode(Meters{Value: 3.5})
	require.NoError(t, err)

	require.Equal(t, value.KindF64, v.Kind())
	f, _ := v.Float()
	require.Equal(t, 3.5, f)
}

// Status models an untagged Rust-style enum: Idle is a unit variant,
// Running carries a payload.
type Status struct {
	name    string
	running *RunningInfo
}

type RunningInfo struct {
	Pid int
}

func (s Status) Variant() (string, any) {
	if s.name == "running" {
		return "running", *s.running
	}
	return s.name, nil
}

func (s *Status) SetVariant(name string, payload value.Value) error {
	s.name = name
	if name == "running" {
		var info RunningInfo
		c := valueconv.New(valueconv.AsIs)
		if err := c.Decode(payload, &info); err != nil {
			return err
		}
		s.running = &info
	}
	return nil
}

func TestUntaggedEnumUnitVariantEncodesAsBareString(t *testing.T) {
	c := valueconv.New(valueconv.AsIs)
	v, err := c.Encode(Status{name: "idle"})
	require.NoError(t, err)

	s, ok := v.StrVal()
	require.True(t, ok)
	require.Equal(t, "idle", s)
}

func TestUntaggedEnumPayloadVariantRoundTrips(t *testing.T) {
	c := valueconv.New(valueconv.AsIs)
	v, err := c.Encode(Status{name: "running", running: &RunningInfo{Pid: 42}})
	require.NoError(t, err)

	var out Status
	require.NoError(t, c.Decode(v, &out))
	require.Equal(t, "running", out.name)
	require.Equal(t, 42, out.running.Pid)
}

func TestTaggedEnumNestsPayloadUnderContentField(t *testing.T) {
	c := valueconv.New(valueconv.AsIs).WithTaggedEnums(valueconv.EnumTag{})
	v, err := c.Encode(Status{name: "running", running: &RunningInfo{Pid: 42}})
	require.NoError(t, err)

	pairs, ok := v.Pairs()
	require.True(t, ok)
	require.Len(t, pairs, 2)

	tagKey, _ := pairs[0].Key.StrVal()
	require.Equal(t, "tag", tagKey)
	contentKey, _ := pairs[1].Key.StrVal()
	require.Equal(t, "content", contentKey)

	var out Status
	require.NoError(t, c.Decode(v, &out))
	require.Equal(t, "running", out.name)
	require.Equal(t, 42, out.running.Pid)
}

func TestFlattenedTaggedEnumMergesPayloadFieldsIntoTopLevelMap(t *testing.T) {
	c := valueconv.New(valueconv.AsIs).WithTaggedEnums(valueconv.EnumTag{Flatten: true})
	v, err := c.Encode(Status{name: "running", running: &RunningInfo{Pid: 42}})
	require.NoError(t, err)

	pairs, ok := v.Pairs()
	require.True(t, ok)

	keys := make(map[string]value.Value)
	for _, p := range pairs {
		k, _ := p.Key.StrVal()
		keys[k] = p.Val
	}
	// No "content" key: Pid sits directly alongside tag.
	_, hasContent := keys["content"]
	require.False(t, hasContent)
	require.Contains(t, keys, "tag")
	require.Contains(t, keys, "Pid")

	var out Status
	require.NoError(t, c.Decode(v, &out))
	require.Equal(t, "running", out.name)
	require.Equal(t, 42, out.running.Pid)
}

func TestRenamePolicyVariants(t *testing.T) {
	require.Equal(t, "userID", valueconv.CamelCase.Apply("UserID"))
	require.Equal(t, "user_id", valueconv.SnakeCase.Apply("UserID"))
	require.Equal(t, "user-id", valueconv.KebabCase.Apply("UserID"))
	require.Equal(t, "USERID", valueconv.UpperCase.Apply("UserID"))
	require.Equal(t, "userid", valueconv.LowerCase.Apply("UserID"))
	require.Equal(t, "UserID", valueconv.AsIs.Apply("UserID"))
}

func TestDecodeSliceOfStructs(t *testing.T) {
	c := valueconv.New(valueconv.AsIs)
	v, err := c.Encode([]Address{{City: "A"}, {City: "B"}})
	require.NoError(t, err)

	var out []Address
	require.NoError(t, c.Decode(v, &out))
	require.Len(t, out, 2)
	require.Equal(t, "A", out[0].City)
	require.Equal(t, "B", out[1].City)
}
