package repositories

import (
	"errors"
	"reflect"
	"testing"

	"github.com/planora/scheduler/internal/pkg/apperrors"
)

func TestNotFoundMatchesSentinel(t *testing.T) {
	if !errors.Is(ErrNotFound, apperrors.ErrResourceNotFound) {
		t.Fatal("repository not-found error does not match apperrors.ErrResourceNotFound")
	}
}

func TestFlattenEnrollments(t *testing.T) {
	cases := []struct {
		name        string
		in          []interface{}
		want        []interface{}
		wantChanged bool
	}{
		{
			name: "flat list untouched",
			in:   []interface{}{"C1", "C2"},
			want: []interface{}{"C1", "C2"},
		},
		{
			name:        "nested list flattened one level",
			in:          []interface{}{"C1", []interface{}{"C2", "C3"}},
			want:        []interface{}{"C1", "C2", "C3"},
			wantChanged: true,
		},
		{
			name:        "fully nested",
			in:          []interface{}{[]interface{}{"C1"}, []interface{}{"C2"}},
			want:        []interface{}{"C1", "C2"},
			wantChanged: true,
		},
		{
			name: "empty",
			in:   []interface{}{},
			want: []interface{}{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, changed := flattenEnrollments(tc.in)
			if changed != tc.wantChanged {
				t.Errorf("changed = %v, want %v", changed, tc.wantChanged)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("flattened = %v, want %v", got, tc.want)
			}
		})
	}
}
