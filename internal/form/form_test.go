package form

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denguechat/denguechat-admin/internal/i18n"
	"github.com/denguechat/denguechat-admin/internal/platform/api"
)

func userForm() *Form {
	roles := []Option{{Value: "1", Label: "Admin"}, {Value: "2", Label: "Brigadista"}}
	return New("/users",
		Input("first_name", "First name").Require(),
		Input("email", "Email").As(KindEmail),
		Input("password", "Password").As(KindPassword),
		Select("organization_id", "Organization", []Option{{Value: "9", Label: "Tariki"}}).Alias("organization"),
		MultipleSelect("role_ids", "Roles", roles).Alias("roles"),
		Input("active", "Active").As(KindCheckbox),
		Input("id", "").As(KindHidden),
	)
}

func TestBind(t *testing.T) {
	f := userForm()
	f.Bind(url.Values{
		"first_name":      {"  Ana "},
		"password":        {" secret "},
		"organization_id": {"9"},
		"role_ids":        {"2", "", "1", "2"},
		"active":          {"on"},
	})

	assert.Equal(t, "Ana", f.Value("first_name"))
	assert.Equal(t, " secret ", f.Value("password"))
	assert.Equal(t, []string{"2", "1"}, f.Values("role_ids"))
	assert.True(t, f.Bool("active"))

	roles := f.Field("role_ids").Choices()
	assert.True(t, roles[0].Selected)
	assert.True(t, roles[1].Selected)
	assert.True(t, f.Field("organization_id").Choices()[0].Selected)

	f.Bind(url.Values{})
	assert.False(t, f.Bool("active"))
	assert.Empty(t, f.Values("role_ids"))
}

func TestApplyErrorsAttachesFieldErrors(t *testing.T) {
	f := userForm()
	err := &api.Error{Status: http.StatusUnprocessableEntity, Items: []api.ErrorItem{
		{Code: "taken", Detail: "has already been taken", Field: "firstName"},
		{Code: "blank", Field: "roles"},
		{Code: "invalid", Field: "unknown_field"},
		{Code: "quota_exceeded", Detail: "too many users"},
	}}

	f.ApplyErrors(fmt.Errorf("create user: %w", err), i18n.NewTranslator(), "en")

	assert.Equal(t, "Has already been taken.", f.Field("first_name").Error)
	assert.Equal(t, "Can't be blank.", f.Field("role_ids").Error)
	assert.Equal(t, []string{"Is invalid.", "Something went wrong. Please try again."}, f.Toasts)
	assert.True(t, f.HasErrors())

	f.ClearErrors()
	assert.False(t, f.HasErrors())
}

func TestApplyErrorsWithoutItems(t *testing.T) {
	tr := i18n.NewTranslator()

	f := userForm()
	f.ApplyErrors(&api.Error{Status: http.StatusForbidden}, tr, "en")
	assert.Equal(t, []string{"You are not allowed to do that."}, f.Toasts)

	f = userForm()
	f.ApplyErrors(fmt.Errorf("list: %w", api.ErrUnavailable), tr, "en")
	assert.Equal(t, []string{"The server is unavailable."}, f.Toasts)

	f = userForm()
	f.ApplyErrors(errors.New("boom"), tr, "es")
	assert.Equal(t, []string{"Ocurrió un error. Inténtalo de nuevo."}, f.Toasts)

	f = userForm()
	f.ApplyErrors(nil, tr, "en")
	assert.False(t, f.HasErrors())
}

type signup struct {
	FirstName string `form:"first_name" validate:"required"`
	Email     string `form:"email" validate:"omitempty,email"`
	Password  string `form:"password" validate:"min=8"`
}

func TestValidate(t *testing.T) {
	f := userForm()
	ok := f.Validate(signup{Email: "nope", Password: "short"}, i18n.NewTranslator(), "en")
	require.False(t, ok)
	assert.Equal(t, "This field is required.", f.Field("first_name").Error)
	assert.Equal(t, "Must be a valid email address.", f.Field("email").Error)
	assert.Equal(t, "Is too short.", f.Field("password").Error)
	assert.Empty(t, f.Toasts)

	f = userForm()
	assert.True(t, f.Validate(signup{FirstName: "Ana", Password: "long enough"}, i18n.NewTranslator(), "en"))
}

func TestSetErrorKeepsFirstMessage(t *testing.T) {
	f := userForm()
	require.True(t, f.SetError("first-name", "one"))
	require.True(t, f.SetError("FIRST_NAME", "two"))
	assert.Equal(t, "one", f.Field("first_name").Error)
	assert.False(t, f.SetError("id", "hidden fields never show errors"))
}
