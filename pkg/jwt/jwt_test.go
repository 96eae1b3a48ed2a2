package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/agro-inventario/pkg/jwt"
)

const (
	secret  = "secreto-de-pruebas"
	userID  = "user-1"
	company = "finca-1"
	issuer  = "agro-inventario-test"
)

func TestGenerateYParse_ConservaClaims(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, userID, company, "bodeguero", issuer, 60)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	gotUser, gotCompany, role, err := pkgjwt.Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, userID, gotUser)
	assert.Equal(t, company, gotCompany)
	assert.Equal(t, "bodeguero", role)
}

func TestParse_Rechaza(t *testing.T) {
	valid, err := pkgjwt.Generate(secret, userID, company, "admin", issuer, 60)
	require.NoError(t, err)
	expired, err := pkgjwt.Generate(secret, userID, company, "admin", issuer, -1)
	require.NoError(t, err)

	cases := []struct {
		name   string
		secret string
		token  string
	}{
		{"expirado", secret, expired},
		{"secret distinto", "otro-secreto", valid},
		{"malformado", secret, "no.es.token"},
		{"secret vacío", "", valid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, err := pkgjwt.Parse(tc.secret, tc.token)
			assert.ErrorIs(t, err, pkgjwt.ErrInvalidToken)
		})
	}
}

func TestParse_SinUsuario_Rechaza(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, "", company, "admin", issuer, 60)
	require.NoError(t, err)
	_, _, _, err = pkgjwt.Parse(secret, tok)
	assert.ErrorIs(t, err, pkgjwt.ErrInvalidToken)
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := pkgjwt.Generate("", userID, company, "admin", issuer, 60)
	assert.Error(t, err)
}
