package group

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func duplicateKey(message string) error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: message}}}
}

func TestIsNameConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "name index",
			err:  duplicateKey(`E11000 duplicate key error collection: go-social.groups index: name_1 collation: { locale: "en", strength: 2 } dup key: { name: "hikers" }`),
			want: true,
		},
		{
			name: "id collision",
			err:  duplicateKey(`E11000 duplicate key error collection: go-social.groups index: _id_ dup key: { _id: ObjectId('65f0') }`),
			want: false,
		},
		{
			name: "other write error",
			err:  mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 121, Message: "Document failed validation"}}},
			want: false,
		},
		{name: "plain error", err: errors.New("index: name_1 dup key"), want: false},
		{name: "nil", err: nil, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNameConflict(tt.err); got != tt.want {
				t.Errorf("isNameConflict() = %v, want %v", got, tt.want)
			}
		})
	}
}
