package api_router

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/haierkeys/offline-note-vault/internal/app"
	"github.com/haierkeys/offline-note-vault/internal/service"
	pkgapp "github.com/haierkeys/offline-note-vault/pkg/app"
	"github.com/haierkeys/offline-note-vault/pkg/code"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 导入文档体积上限 32MB
const maxImportSize = 32 << 20

// ExportHandler 备份/恢复 API 路由处理器
type ExportHandler struct {
	*Handler
}

// NewExportHandler 创建 ExportHandler 实例
func NewExportHandler(a *app.App) *ExportHandler {
	return &ExportHandler{
		Handler: NewHandler(a),
	}
}

// Export 导出当前用户全部数据为 JSON 附件下载
func (h *ExportHandler) Export(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	username := pkgapp.GetUsername(c)

	raw, err := h.svc(c).ExportJSON(username)
	if err != nil {
		toErrResponse(response, err)
		return
	}

	filename := fmt.Sprintf("notes-%s-%s.json", username, time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

// Import 导入备份文档，按笔记 ID 合并，重复静默跳过
// 请求体既接受裸 JSON，也接受 multipart 的 file 字段
func (h *ExportHandler) Import(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	raw, err := readImportBody(c)
	if err != nil {
		h.App.Logger().Error("ExportHandler.Import body read failed", zap.Error(err))
		response.ToResponse(code.ErrorInvalidParams.Clone().WithDetails(err.Error()))
		return
	}

	doc, err := service.ParseImport(raw)
	if err != nil {
		toErrResponse(response, err)
		return
	}

	result, err := h.svc(c).Import(pkgapp.GetUsername(c), doc)
	if err != nil {
		toErrResponse(response, err)
		return
	}
	response.ToResponse(code.Success.Clone().WithData(result))
}

func readImportBody(c *gin.Context) ([]byte, error) {
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, maxImportSize))
	}
	return io.ReadAll(io.LimitReader(c.Request.Body, maxImportSize))
}
