package websocket_router

import (
	"testing"

	pkgapp "github.com/haierkeys/offline-note-vault/pkg/app"

	"github.com/stretchr/testify/assert"
)

// 控制消息集合是封闭的，只有四个类型可被分发，其余类型在连接层被拒绝
func TestControlWSHandler_Register_ClosedMessageSet(t *testing.T) {
	wss := pkgapp.NewWebsocketServer(pkgapp.WebsocketServerConfig{})
	h := NewControlWSHandler(nil)
	h.Register(wss)

	for _, action := range []string{
		MessageSkipWaiting,
		MessageGetVersion,
		MessageCacheUserData,
		MessageClearCache,
	} {
		assert.True(t, wss.Handles(action), action)
	}

	for _, action := range []string{
		"NoteModify",
		"SyncEnd",
		"Authorization",
		"",
	} {
		assert.False(t, wss.Handles(action), action)
	}
}

func TestSemverTag(t *testing.T) {
	assert.Equal(t, "v0.3.0", semverTag("0.3.0"))
	assert.Equal(t, "v0.3.0", semverTag("v0.3.0"))
}
