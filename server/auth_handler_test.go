package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Hungichi/melodies-BE/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doJSON(t *testing.T, env *testEnv, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	NewRouter(env.handler).ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRegister_Success(t *testing.T) {
	env := newTestEnv()

	rec := doJSON(t, env, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username":        "a",
		"email":           "a@x.com",
		"password":        "p",
		"confirmPassword": "p",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["token"])

	user := body["user"].(map[string]interface{})
	assert.Equal(t, "user", user["role"])
	assert.Equal(t, "a", user["username"])
	assert.Equal(t, "a@x.com", user["email"])

	// The password hash must never appear in any serialized output.
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "hash")

	// The token resolves back to the created user.
	userID, err := env.tokens.Verify(body["token"].(string))
	require.NoError(t, err)
	stored, err := env.userRepo.GetUserByID(userID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "a", stored.Username)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv()
	env.addUser("taken", "a@x.com", model.RoleUser)

	rec := doJSON(t, env, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username":        "other",
		"email":           "a@x.com",
		"password":        "p",
		"confirmPassword": "p",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "email")
}

func TestRegister_DuplicateUsername(t *testing.T) {
	env := newTestEnv()
	env.addUser("taken", "taken@x.com", model.RoleUser)

	rec := doJSON(t, env, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username":        "taken",
		"email":           "fresh@x.com",
		"password":        "p",
		"confirmPassword": "p",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeResponse(t, rec)
	assert.Contains(t, body["message"], "username")
}

func TestRegister_PasswordMismatch(t *testing.T) {
	env := newTestEnv()

	rec := doJSON(t, env, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username":        "a",
		"email":           "a@x.com",
		"password":        "p1",
		"confirmPassword": "p2",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, "passwords do not match", body["message"])
}

func TestRegister_MissingFields(t *testing.T) {
	env := newTestEnv()

	rec := doJSON(t, env, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "a",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_UnknownEmailAndWrongPasswordAreIndistinguishable(t *testing.T) {
	env := newTestEnv()

	// Register through the API so a real bcrypt hash is stored.
	rec := doJSON(t, env, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username":        "a",
		"email":           "a@x.com",
		"password":        "correct",
		"confirmPassword": "correct",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	wrongPassword := doJSON(t, env, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "a@x.com",
		"password": "wrong",
	})
	unknownEmail := doJSON(t, env, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "nobody@x.com",
		"password": "wrong",
	})

	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	require.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv()

	rec := doJSON(t, env, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username":        "a",
		"email":           "a@x.com",
		"password":        "secret",
		"confirmPassword": "secret",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	login := doJSON(t, env, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "a@x.com",
		"password": "secret",
	})

	require.Equal(t, http.StatusOK, login.Code)
	body := decodeResponse(t, login)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["token"])
	assert.NotContains(t, login.Body.String(), "hash")
}

func TestMe_ReturnsMergedProfile(t *testing.T) {
	env := newTestEnv()

	rec := doJSON(t, env, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username":        "a",
		"email":           "a@x.com",
		"password":        "p",
		"confirmPassword": "p",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	token := decodeResponse(t, rec)["token"].(string)

	me := doJSON(t, env, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, me.Code)

	body := decodeResponse(t, me)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "a", user["username"])
	// Registration seeds details with the username as full name.
	details := user["details"].(map[string]interface{})
	assert.Equal(t, "a", details["fullName"])
}

func TestMe_VanishedAccountReturns404(t *testing.T) {
	env := newTestEnv()
	user, token := env.addUser("ghost", "ghost@x.com", model.RoleUser)
	env.userRepo.deleteUser(user.ID)

	rec := doJSON(t, env, http.MethodGet, "/api/auth/me", token, nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMe_RequiresToken(t *testing.T) {
	env := newTestEnv()

	rec := doJSON(t, env, http.MethodGet, "/api/auth/me", "", nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, "missing token", body["message"])
}

func TestMe_RejectsGarbageToken(t *testing.T) {
	env := newTestEnv()

	rec := doJSON(t, env, http.MethodGet, "/api/auth/me", "not.a.jwt", nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateProfile_PartialUpdate(t *testing.T) {
	env := newTestEnv()
	_, token := env.addUser("a", "a@x.com", model.RoleUser)

	rec := doJSON(t, env, http.MethodPut, "/api/auth/profile", token, map[string]string{
		"bio": "hello",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeResponse(t, rec)
	user := body["user"].(map[string]interface{})
	// Untouched identity fields keep their values.
	assert.Equal(t, "a", user["username"])
	assert.Equal(t, "a@x.com", user["email"])
	details := user["details"].(map[string]interface{})
	assert.Equal(t, "hello", details["bio"])

	// A later update of a different field leaves the bio alone.
	rec = doJSON(t, env, http.MethodPatch, "/api/auth/profile", token, map[string]string{
		"location": "Hanoi",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeResponse(t, rec)
	details = body["user"].(map[string]interface{})["details"].(map[string]interface{})
	assert.Equal(t, "hello", details["bio"])
	assert.Equal(t, "Hanoi", details["location"])
}

func TestUpdateProfile_EmailConflict(t *testing.T) {
	env := newTestEnv()
	env.addUser("other", "taken@x.com", model.RoleUser)
	_, token := env.addUser("a", "a@x.com", model.RoleUser)

	rec := doJSON(t, env, http.MethodPut, "/api/auth/profile", token, map[string]string{
		"email": "taken@x.com",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeResponse(t, rec)
	assert.Contains(t, body["message"], "email")
}

func TestUpdateProfile_SameEmailIsNoConflict(t *testing.T) {
	env := newTestEnv()
	_, token := env.addUser("a", "a@x.com", model.RoleUser)

	rec := doJSON(t, env, http.MethodPut, "/api/auth/profile", token, map[string]string{
		"email": "a@x.com",
		"bio":   "unchanged email",
	})

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateProfile_OwnValuesWithWhitespaceAreNoConflict(t *testing.T) {
	env := newTestEnv()
	_, token := env.addUser("a", "a@x.com", model.RoleUser)

	// Resubmitting your own identity fields, even padded, must not read as a
	// collision with yourself.
	rec := doJSON(t, env, http.MethodPut, "/api/auth/profile", token, map[string]string{
		"username": " a ",
		"email":    "  a@x.com",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	user := decodeResponse(t, rec)["user"].(map[string]interface{})
	assert.Equal(t, "a", user["username"])
	assert.Equal(t, "a@x.com", user["email"])
}

func TestUpdateProfile_InvalidDateOfBirth(t *testing.T) {
	env := newTestEnv()
	_, token := env.addUser("a", "a@x.com", model.RoleUser)

	rec := doJSON(t, env, http.MethodPut, "/api/auth/profile", token, map[string]string{
		"dateOfBirth": "31-12-1999",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeResponse(t, rec)
	assert.True(t, strings.Contains(body["message"].(string), "dateOfBirth"))
}
