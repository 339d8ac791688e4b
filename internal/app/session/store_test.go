package session

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/medilive-templui/internal/app/models"
)

func doctor() models.UserProfile {
	return models.UserProfile{
		ID:        "7",
		Email:     "house@medilive.test",
		FirstName: "Gregory",
		LastName:  "House",
		UserType:  models.UserTypeDoctor,
	}
}

func TestLogin(t *testing.T) {
	t.Run("StoresTokenAndProfileTogether", func(t *testing.T) {
		storage := NewMemoryStorage()
		store := NewStore(storage, nil)
		store.Hydrate()

		require.NoError(t, store.Login("tok-1", doctor()))

		st := store.State()
		assert.True(t, st.Authenticated())
		assert.Equal(t, "tok-1", st.Token)
		assert.Equal(t, doctor(), *st.User)

		persisted := storage.Persisted()
		assert.Equal(t, "tok-1", persisted[TokenKey])
		var stored models.UserProfile
		require.NoError(t, json.Unmarshal([]byte(persisted[UserKey]), &stored))
		assert.Equal(t, doctor(), stored)
	})

	t.Run("ReplacesPreviousSession", func(t *testing.T) {
		storage := NewMemoryStorage()
		store := NewStore(storage, nil)
		require.NoError(t, store.Login("tok-1", doctor()))

		caretaker := models.UserProfile{ID: "9", FirstName: "Ann", LastName: "Lee", UserType: models.UserTypeCaretaker}
		require.NoError(t, store.Login("tok-2", caretaker))

		st := store.State()
		assert.Equal(t, "tok-2", st.Token)
		assert.Equal(t, caretaker, *st.User)
		assert.Equal(t, "tok-2", storage.Persisted()[TokenKey])
	})

	t.Run("StoresUnknownUserTypeAsGiven", func(t *testing.T) {
		store := NewStore(NewMemoryStorage(), nil)
		u := models.UserProfile{ID: "3", UserType: "pharmacist"}

		require.NoError(t, store.Login("tok", u))
		assert.Equal(t, models.UserType("pharmacist"), store.State().User.UserType)
	})

	t.Run("EmptyTokenRejected", func(t *testing.T) {
		storage := NewMemoryStorage()
		store := NewStore(storage, nil)

		err := store.Login("", doctor())
		assert.ErrorIs(t, err, models.ErrValidation)
		assert.False(t, store.State().Authenticated())
		assert.Empty(t, storage.Persisted())
	})

	t.Run("IncompleteProfileRejected", func(t *testing.T) {
		for name, u := range map[string]models.UserProfile{
			"MissingID":       {FirstName: "A", UserType: models.UserTypePatient},
			"MissingUserType": {ID: "4", FirstName: "A"},
		} {
			t.Run(name, func(t *testing.T) {
				storage := NewMemoryStorage()
				store := NewStore(storage, nil)
				store.Hydrate()

				err := store.Login("tok", u)
				assert.ErrorIs(t, err, models.ErrValidation)
				assert.False(t, store.State().Authenticated())
				assert.Empty(t, storage.Persisted())
			})
		}
	})

	t.Run("FailedSaveLeavesSessionUntouched", func(t *testing.T) {
		storage := NewMemoryStorage()
		store := NewStore(storage, nil)
		require.NoError(t, store.Login("tok-1", doctor()))

		storage.SaveErr = errors.New("disk full")
		err := store.Login("tok-2", models.UserProfile{ID: "2", UserType: models.UserTypePatient})
		require.Error(t, err)

		st := store.State()
		assert.Equal(t, "tok-1", st.Token)
		assert.Equal(t, doctor(), *st.User)
		token, _ := storage.Get(TokenKey)
		assert.Equal(t, "tok-1", token)
	})

	t.Run("StateIsACopy", func(t *testing.T) {
		store := NewStore(NewMemoryStorage(), nil)
		require.NoError(t, store.Login("tok", doctor()))

		st := store.State()
		st.User.FirstName = "Changed"
		assert.Equal(t, "Gregory", store.State().User.FirstName)
	})
}

func TestLogout(t *testing.T) {
	t.Run("ClearsMemoryAndStorage", func(t *testing.T) {
		storage := NewMemoryStorage()
		store := NewStore(storage, nil)
		require.NoError(t, store.Login("tok", doctor()))

		require.NoError(t, store.Logout())

		st := store.State()
		assert.False(t, st.Authenticated())
		assert.Empty(t, st.Token)
		assert.Nil(t, st.User)
		assert.Empty(t, storage.Persisted())
	})

	t.Run("Idempotent", func(t *testing.T) {
		storage := NewMemoryStorage()
		store := NewStore(storage, nil)
		store.Hydrate()

		require.NoError(t, store.Logout())
		require.NoError(t, store.Logout())
		assert.False(t, store.State().Authenticated())
		assert.Empty(t, storage.Persisted())
	})

	t.Run("SaveErrorStillClearsMemory", func(t *testing.T) {
		storage := NewMemoryStorage()
		store := NewStore(storage, nil)
		require.NoError(t, store.Login("tok", doctor()))

		storage.SaveErr = errors.New("boom")
		assert.Error(t, store.Logout())
		assert.False(t, store.State().Authenticated())
	})
}

func TestHydrate(t *testing.T) {
	t.Run("RoundTripAfterRestart", func(t *testing.T) {
		storage := NewMemoryStorage()
		first := NewStore(storage, nil)
		first.Hydrate()
		require.NoError(t, first.Login("tok-rt", doctor()))

		restarted := NewStore(storage.Reopen(), nil)
		assert.False(t, restarted.State().Hydrated)
		restarted.Hydrate()

		st := restarted.State()
		assert.True(t, st.Hydrated)
		assert.Equal(t, "tok-rt", st.Token)
		assert.Equal(t, doctor(), *st.User)
	})

	t.Run("EveryAcceptedLoginSurvivesRestart", func(t *testing.T) {
		profiles := []models.UserProfile{
			doctor(),
			{ID: "2", UserType: models.UserTypePatient},
			{ID: "3", FirstName: "Ann", UserType: models.UserTypeHospital},
			{ID: "4", UserType: "pharmacist"},
			{ID: "5", UserType: models.UserTypeCaretaker},
			{FirstName: "NoID", UserType: models.UserTypeDoctor},
			{ID: "6", FirstName: "NoType"},
		}
		for _, u := range profiles {
			storage := NewMemoryStorage()
			store := NewStore(storage, nil)
			store.Hydrate()
			loginErr := store.Login("tok", u)

			restarted := NewStore(storage.Reopen(), nil)
			restarted.Hydrate()

			if loginErr != nil {
				assert.False(t, restarted.State().Authenticated(), "rejected profile %+v was persisted", u)
				continue
			}
			st := restarted.State()
			require.True(t, st.Authenticated(), "accepted profile %+v lost after restart", u)
			assert.Equal(t, u, *st.User)
		}
	})

	t.Run("EmptyStorage", func(t *testing.T) {
		store := NewStore(NewMemoryStorage(), nil)
		store.Hydrate()

		st := store.State()
		assert.True(t, st.Hydrated)
		assert.False(t, st.Authenticated())
	})

	t.Run("NumericIDFromBackend", func(t *testing.T) {
		storage := NewMemoryStorage()
		storage.Set(TokenKey, "tok")
		storage.Set(UserKey, `{"id":42,"email":"a@b.c","firstName":"A","lastName":"B","userType":"caretaker"}`)

		store := NewStore(storage, nil)
		store.Hydrate()

		st := store.State()
		require.True(t, st.Authenticated())
		assert.Equal(t, models.UserID("42"), st.User.ID)
		assert.Equal(t, models.UserTypeCaretaker, st.User.UserType)
	})

	cases := []struct {
		name  string
		token *string
		user  *string
	}{
		{name: "TokenWithoutUser", token: ptr("tok")},
		{name: "UserWithoutToken", user: ptr(`{"id":1,"userType":"doctor"}`)},
		{name: "EmptyToken", token: ptr(""), user: ptr(`{"id":1,"userType":"doctor"}`)},
		{name: "MalformedJSON", token: ptr("tok"), user: ptr(`{"id":`)},
		{name: "JSONArray", token: ptr("tok"), user: ptr(`[1,2]`)},
		{name: "JSONNull", token: ptr("tok"), user: ptr(`null`)},
		{name: "MissingID", token: ptr("tok"), user: ptr(`{"firstName":"A","userType":"doctor"}`)},
		{name: "MissingUserType", token: ptr("tok"), user: ptr(`{"id":1,"firstName":"A"}`)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			storage := NewMemoryStorage()
			if tc.token != nil {
				storage.Set(TokenKey, *tc.token)
			}
			if tc.user != nil {
				storage.Set(UserKey, *tc.user)
			}
			before := snapshotEntries(storage)

			store := NewStore(storage, nil)
			store.Hydrate()

			st := store.State()
			assert.True(t, st.Hydrated)
			assert.False(t, st.Authenticated())
			assert.Empty(t, st.Token)
			assert.Nil(t, st.User)
			assert.Equal(t, before, snapshotEntries(storage), "hydrate must not write storage")
		})
	}

	t.Run("RunsOnce", func(t *testing.T) {
		storage := NewMemoryStorage()
		store := NewStore(storage, nil)
		store.Hydrate()

		storage.Set(TokenKey, "late")
		storage.Set(UserKey, `{"id":1,"userType":"doctor"}`)
		store.Hydrate()

		assert.False(t, store.State().Authenticated())
	})
}

func ptr(s string) *string { return &s }

func snapshotEntries(m *MemoryStorage) map[string]string {
	out := make(map[string]string)
	for _, k := range []string{TokenKey, UserKey} {
		if v, ok := m.Get(k); ok {
			out[k] = v
		}
	}
	return out
}
