package value

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_ObjectOrder(t *testing.T) {
	obj := NewObject(
		O("zebra", String("z")),
		O("apple", Array{Int(1), Null{}, Bool(false)}),
		O("nested", NewObject(O("y", Float(2.5)), O("x", Int(0)))),
	)

	data, err := Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"zebra":"z","apple":[1,null,false],"nested":{"y":2.5,"x":0}}`, string(data))
}

func TestMarshal_NilIsNull(t *testing.T) {
	data, err := Marshal(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestMarshal_InvalidNumber(t *testing.T) {
	_, err := Marshal(Number("twelve"))
	assert.Error(t, err)

	_, err = Marshal(Array{Number("1"), Number("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "array[1]")
}

func TestMarshal_InsideStdlibStruct(t *testing.T) {
	payload := struct {
		V Value `json:"v"`
	}{V: NewObject(O("b", Int(1)), O("a", Int(2)))}

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.Equal(t, `{"v":{"b":1,"a":2}}`, string(data))
}

func TestUnmarshal(t *testing.T) {
	v, err := Unmarshal([]byte(`{"b":1,"a":[true,null,"x",2.50],"c":{}}`))
	require.NoError(t, err)

	want := Object{
		O("b", Number("1")),
		O("a", Array{Bool(true), Null{}, String("x"), Number("2.50")}),
		O("c", Object{}),
	}
	assert.Equal(t, want, v)
}

func TestUnmarshal_DuplicateKeyLastWins(t *testing.T) {
	v, err := Unmarshal([]byte(`{"a":1,"b":2,"a":3}`))
	require.NoError(t, err)
	assert.Equal(t, Object{O("a", Number("3")), O("b", Number("2"))}, v)
}

func TestUnmarshal_Errors(t *testing.T) {
	for _, input := range []string{``, `{`, `[1,]`, `{"a" 1}`, `1 2`, `nope`} {
		_, err := Unmarshal([]byte(input))
		assert.Error(t, err, input)
	}
}

func TestRoundTrip(t *testing.T) {
	original := NewObject(
		O("s", String(`quote ' and backslash \`)),
		O("n", Number("-1.5e3")),
		O("arr", Array{}),
	)

	data, err := Marshal(original)
	require.NoError(t, err)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestObjectUnmarshalJSON(t *testing.T) {
	var payload struct {
		Values Object `json:"values"`
		List   Array  `json:"list"`
	}
	err := json.Unmarshal([]byte(`{"values":{"z":1,"a":"b"},"list":[1,"x"]}`), &payload)
	require.NoError(t, err)

	assert.Equal(t, []string{"z", "a"}, payload.Values.Keys())
	assert.Equal(t, Array{Number("1"), String("x")}, payload.List)

	err = json.Unmarshal([]byte(`{"values":[1]}`), &payload)
	assert.Error(t, err)
}
