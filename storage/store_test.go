package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bainum/dashboard/core"
)

func TestOpenSessionStore(t *testing.T) {
	tests := []struct {
		name           string
		store          string
		wantKind       string
		wantPersistent bool
		wantErr        string
	}{
		{name: "default", store: "", wantKind: StoreMemory},
		{name: "memory", store: "memory", wantKind: StoreMemory},
		{name: "inmem alias", store: "inmem", wantKind: StoreMemory},
		{name: "unknown", store: "mongo", wantErr: `unknown session store "mongo"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := &core.Config{}
			conf.Session.Store = tt.store

			store, err := OpenSessionStore(context.Background(), conf)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, store.Kind)
			assert.Equal(t, tt.wantPersistent, store.Persistent())
			assert.NotNil(t, store.Sessions)
			assert.Nil(t, store.DB)
			assert.NoError(t, store.Close())
		})
	}
}
