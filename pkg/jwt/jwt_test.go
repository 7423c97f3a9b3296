package jwt_test

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/gestor-api/pkg/jwt"
)

const secret = "clave-de-prueba"

func TestParse_DevuelveIdentidad(t *testing.T) {
	tok, err := jwt.Generate(secret, "u-42", jwt.RoleMensajero, "gestor", 30)
	require.NoError(t, err)

	id, err := jwt.Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, jwt.Identity{UserID: "u-42", Role: jwt.RoleMensajero}, id)
}

func TestParse_UsaSubjectSiFaltaUserID(t *testing.T) {
	claims := jwt.Claims{RegisteredClaims: gojwt.RegisteredClaims{
		Subject:   "u-7",
		ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
	}, Role: jwt.RoleVendedor}
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	id, err := jwt.Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "u-7", id.UserID)
}

func TestParse_Rechazos(t *testing.T) {
	vencido, err := jwt.GenerateAt(secret, "u-1", jwt.RoleAdmin, "gestor", 5, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	ajeno, err := jwt.Generate("otra-clave", "u-1", jwt.RoleAdmin, "gestor", 5)
	require.NoError(t, err)
	sinFirma, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, jwt.Claims{UserID: "u-1", Role: jwt.RoleAdmin}).
		SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"vencido":    vencido,
		"otra clave": ajeno,
		"alg none":   sinFirma,
		"basura":     "a.b.c",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := jwt.Parse(secret, tok)
			assert.Error(t, err)
		})
	}
}

func TestSecretVacio(t *testing.T) {
	_, err := jwt.Generate("", "u-1", jwt.RoleAdmin, "gestor", 5)
	assert.Error(t, err)
	_, err = jwt.Parse("", "a.b.c")
	assert.Error(t, err)
}
