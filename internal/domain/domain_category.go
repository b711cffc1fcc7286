package domain

import (
	"github.com/haierkeys/offline-note-vault/pkg/timex"
)

// Category 笔记分类，Color 仅作展示提示
type Category struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Color     string     `json:"color,omitempty"`
	CreatedAt timex.Time `json:"createdAt"`
}
