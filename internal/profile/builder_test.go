package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazysnmp/internal/models"
)

type fakeCollab struct {
	names   []string
	created [][]byte
	listErr error
}

func (f *fakeCollab) Names(context.Context) ([]string, error) {
	return f.names, f.listErr
}

func (f *fakeCollab) Create(_ context.Context, data []byte) error {
	f.created = append(f.created, data)
	return nil
}

func v2Fields(name string) Fields {
	return Fields{Name: name, Target: "10.0.0.1", Port: "161", Version: "2", Community: "public"}
}

func requireValidation(t *testing.T, err error, field, msg string) {
	t.Helper()
	require.ErrorIs(t, err, models.ErrValidation)
	var ve *models.ValidationError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, field, ve.Field)
	if msg != "" {
		require.Equal(t, msg, ve.Msg)
	}
}

func TestCheckName(t *testing.T) {
	existing := []string{"lab1", "core"}

	tests := []struct {
		name string
		want NameState
	}{
		{"", NameEmpty},
		{"   ", NameEmpty},
		{"lab1", NameDuplicate},
		{"Lab1", NameValid},
		{"edge", NameValid},
	}
	for _, tt := range tests {
		got := CheckName(tt.name, existing)
		require.Equal(t, tt.want, got, "name %q", tt.name)
		require.Equal(t, tt.want == NameValid, got.CanSave())
	}

	require.Equal(t, "name can't be empty", NameEmpty.Message())
	require.Equal(t, "name already used", NameDuplicate.Message())
	require.Empty(t, NameValid.Message())
}

func TestBuildRejectsEmptyAndDuplicateNames(t *testing.T) {
	c := &fakeCollab{names: []string{"lab1"}}
	b := NewBuilder(c, c)

	_, err := b.Build(context.Background(), v2Fields(""))
	requireValidation(t, err, "name", "name can't be empty")

	_, err = b.Build(context.Background(), v2Fields("lab1"))
	requireValidation(t, err, "name", "name already used")
}

func TestBuildUsesLatestNameList(t *testing.T) {
	c := &fakeCollab{}
	b := NewBuilder(c, c)

	_, err := b.Build(context.Background(), v2Fields("lab1"))
	require.NoError(t, err)

	c.names = []string{"lab1"}
	_, err = b.Build(context.Background(), v2Fields("lab1"))
	requireValidation(t, err, "name", "name already used")
}

func TestBuildNamesBadIntegerField(t *testing.T) {
	c := &fakeCollab{}
	b := NewBuilder(c, c)

	for _, field := range []string{"port", "timeout", "retries"} {
		f := v2Fields("lab1")
		switch field {
		case "port":
			f.Port = "16x"
		case "timeout":
			f.Timeout = "ten"
		case "retries":
			f.Retries = "1.5"
		}
		_, err := b.Build(context.Background(), f)
		requireValidation(t, err, field, "")
	}
}

func TestBuildSelectsPayloadByVersion(t *testing.T) {
	c := &fakeCollab{}
	b := NewBuilder(c, c)

	p, err := b.Build(context.Background(), Fields{
		Name:           "v3lab",
		Version:        "3",
		Community:      "ignored",
		UserName:       "admin",
		AuthProtocol:   "SHA256",
		AuthPassphrase: "authpass",
		PrivProtocol:   "AES",
		PrivPassphrase: "privpass",
	})
	require.NoError(t, err)
	require.Empty(t, p.Community)
	require.Equal(t, models.SecurityModelUSM, p.SecurityModel)
	require.Equal(t, "SHA256", p.SecurityParameters.AuthenticationProtocol)

	p, err = b.Build(context.Background(), Fields{Name: "v3min", Version: "3", UserName: "ro"})
	require.NoError(t, err)
	require.Equal(t, "No Auth", p.SecurityParameters.AuthenticationProtocol)
	require.Equal(t, "No Priv", p.SecurityParameters.PrivacyProtocol)

	p, err = b.Build(context.Background(), v2Fields("v2"))
	require.NoError(t, err)
	require.Equal(t, "public", p.Community)
	require.True(t, p.SecurityParameters.IsZero())
	require.Empty(t, p.SecurityModel)

	_, err = b.Build(context.Background(), Fields{Name: "bad", Version: "4"})
	requireValidation(t, err, "version", "")
}

func TestSubmitHandsJSONToCreator(t *testing.T) {
	c := &fakeCollab{}
	b := NewBuilder(c, c)

	p, err := b.Submit(context.Background(), v2Fields("lab1"))
	require.NoError(t, err)
	require.Equal(t, "lab1", p.Name)
	require.Len(t, c.created, 1)

	decoded, err := models.DecodeConnectionProfile(c.created[0])
	require.NoError(t, err)
	require.Equal(t, p, decoded)
}

func TestSubmitDoesNotCreateInvalidProfile(t *testing.T) {
	c := &fakeCollab{names: []string{"lab1"}}
	b := NewBuilder(c, c)

	_, err := b.Submit(context.Background(), v2Fields("lab1"))
	require.Error(t, err)
	require.Empty(t, c.created)
}

func TestValidateNameReportsListFailure(t *testing.T) {
	c := &fakeCollab{listErr: errors.New("disk gone")}
	b := NewBuilder(c, c)

	_, err := b.ValidateName(context.Background(), "lab1")
	require.ErrorContains(t, err, "disk gone")
}
