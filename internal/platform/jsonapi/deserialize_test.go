package jsonapi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRole struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Permissions []testPermission `json:"permissions"`
}

type testPermission struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type testTeam struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Leader  *testUser  `json:"leader"`
	Members []testUser `json:"members"`
}

type testUser struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Roles     []testRole `json:"roles"`
	Team      *testTeam  `json:"team"`
}

const userCollection = `{
  "data": [
    {
      "type": "users", "id": "1",
      "attributes": {"first_name": "Ana", "last-name": "Silva"},
      "relationships": {
        "roles": {"data": [{"type": "roles", "id": "10"}]},
        "team": {"data": {"type": "teams", "id": "7"}}
      }
    },
    {
      "type": "users", "id": "2",
      "attributes": {"first_name": "Luis", "last_name": "Rojas"},
      "relationships": {
        "roles": {"data": []},
        "team": {"data": null}
      }
    }
  ],
  "included": [
    {"type": "roles", "id": "10", "attributes": {"name": "admin"},
     "relationships": {"permissions": {"data": [{"type": "permissions", "id": "99"}]}}},
    {"type": "permissions", "id": "99", "attributes": {"name": "users.edit"}},
    {"type": "teams", "id": "7", "attributes": {"name": "Brigada Norte"},
     "relationships": {"leader": {"data": {"type": "users", "id": "1"}}}}
  ],
  "meta": {"total": 42}
}`

func TestUnmarshalCollectionResolvesIncluded(t *testing.T) {
	doc, err := Decode(strings.NewReader(userCollection))
	require.NoError(t, err)
	assert.True(t, doc.IsCollection())
	assert.Equal(t, 42, doc.Meta.Total())

	var users []testUser
	require.NoError(t, doc.Unmarshal(&users))
	require.Len(t, users, 2)

	ana := users[0]
	assert.Equal(t, "1", ana.ID)
	assert.Equal(t, "users", ana.Type)
	assert.Equal(t, "Ana", ana.FirstName)
	assert.Equal(t, "Silva", ana.LastName)
	require.Len(t, ana.Roles, 1)
	assert.Equal(t, "admin", ana.Roles[0].Name)
	require.Len(t, ana.Roles[0].Permissions, 1)
	assert.Equal(t, "users.edit", ana.Roles[0].Permissions[0].Name)
	require.NotNil(t, ana.Team)
	assert.Equal(t, "Brigada Norte", ana.Team.Name)

	luis := users[1]
	assert.Empty(t, luis.Roles)
	assert.NotNil(t, luis.Roles)
	assert.Nil(t, luis.Team)
}

func TestUnmarshalBreaksCycles(t *testing.T) {
	doc, err := Decode(strings.NewReader(userCollection))
	require.NoError(t, err)
	var users []testUser
	require.NoError(t, doc.Unmarshal(&users))

	leader := users[0].Team.Leader
	require.NotNil(t, leader)
	assert.Equal(t, "1", leader.ID)
	assert.Equal(t, "users", leader.Type)
	assert.Empty(t, leader.FirstName, "a resource already on the path decodes to its identifier")
}

func TestUnmarshalSingleResource(t *testing.T) {
	doc, err := Decode(strings.NewReader(`{"data": {"type": "teams", "id": "3",
		"attributes": {"name": "Sur"},
		"relationships": {"members": {"data": [{"type": "users", "id": "8"}]}}}}`))
	require.NoError(t, err)
	assert.False(t, doc.IsCollection())
	assert.Equal(t, -1, doc.Meta.Total())

	var team testTeam
	require.NoError(t, doc.Unmarshal(&team))
	assert.Equal(t, "Sur", team.Name)
	require.Len(t, team.Members, 1)
	assert.Equal(t, "8", team.Members[0].ID, "unresolved identifiers keep their id")
}

func TestUnmarshalNullData(t *testing.T) {
	doc, err := Decode(strings.NewReader(`{"data": null}`))
	require.NoError(t, err)
	var team testTeam
	assert.ErrorIs(t, doc.Unmarshal(&team), ErrNoData)

	var teams []testTeam
	require.NoError(t, doc.Unmarshal(&teams))
	assert.Empty(t, teams)
}

func TestUnmarshalRequiresPointer(t *testing.T) {
	doc, err := Decode(strings.NewReader(`{"data": []}`))
	require.NoError(t, err)
	assert.Error(t, doc.Unmarshal([]testTeam{}))
}

func TestMetaTotalFallbacks(t *testing.T) {
	doc, err := Decode(strings.NewReader(`{"data": [], "meta": {"total_count": "15"}}`))
	require.NoError(t, err)
	assert.Equal(t, 15, doc.Meta.Total())
}

func TestCaseConversion(t *testing.T) {
	assert.Equal(t, "firstName", CamelCase("first_name"))
	assert.Equal(t, "houseBlockId", CamelCase("house-block_id"))
	assert.Equal(t, "id", CamelCase("_id"))
	assert.Equal(t, "name", CamelCase("name"))
	assert.Equal(t, "first_name", SnakeCase("firstName"))
	assert.Equal(t, "house_block_id", SnakeCase("houseBlockId"))
	assert.Equal(t, "team_id", SnakeCase("team-id"))
}
