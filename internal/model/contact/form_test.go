package contact

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultsSelectWebDesign(t *testing.T) {
	d := Defaults()
	require.Equal(t, FormData{Service: ServiceWebDesign}, d)
}

func TestMissingFields(t *testing.T) {
	cases := []struct {
		name string
		data FormData
		want []string
	}{
		{
			name: "complete",
			data: FormData{Name: "Ada", Email: "ada@example.com", Service: ServiceAgents, Message: "Hello"},
			want: nil,
		},
		{
			name: "blank defaults",
			data: Defaults(),
			want: []string{"name", "email", "message"},
		},
		{
			name: "whitespace and bad email",
			data: FormData{Name: "  ", Email: "not-an-email", Service: ServiceOther, Message: "\t"},
			want: []string{"name", "email", "message"},
		},
		{
			name: "unknown service",
			data: FormData{Name: "Ada", Email: "ada@example.com", Service: "Catering", Message: "Hi"},
			want: []string{"service"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.data.MissingFields())
		})
	}
}
