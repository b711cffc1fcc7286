package global

import (
	"github.com/haierkeys/offline-note-vault/pkg/fileurl"
)

var (
	// 程序执行目录
	ROOT string
	Name string = "Offline Note Vault"
)

func init() {

	filename := fileurl.GetExePath()
	ROOT = filename + "/"

}
