package api_router

import (
	"github.com/haierkeys/offline-note-vault/internal/app"
	"github.com/haierkeys/offline-note-vault/internal/service"
	pkgapp "github.com/haierkeys/offline-note-vault/pkg/app"
	"github.com/haierkeys/offline-note-vault/pkg/code"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NoteHandler 笔记 API 路由处理器
type NoteHandler struct {
	*Handler
}

// NewNoteHandler 创建 NoteHandler 实例
func NewNoteHandler(a *app.App) *NoteHandler {
	return &NoteHandler{
		Handler: NewHandler(a),
	}
}

// Create 创建笔记
func (h *NoteHandler) Create(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &service.NoteCreateRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("NoteHandler.Create.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.Clone().WithDetails(errs.Errors()...))
		return
	}

	note, err := h.svc(c).NoteCreate(pkgapp.GetUsername(c), params)
	if err != nil {
		toErrResponse(response, err)
		return
	}
	response.ToResponse(code.Success.Clone().WithData(note))
}

// Modify 修改笔记（标题/内容/分类/标签/置顶/收藏）
func (h *NoteHandler) Modify(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &service.NoteModifyRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.Clone().WithDetails(errs.Errors()...))
		return
	}

	note, err := h.svc(c).NoteModify(pkgapp.GetUsername(c), params)
	if err != nil {
		toErrResponse(response, err)
		return
	}
	response.ToResponse(code.Success.Clone().WithData(note))
}

// Get 单条笔记
func (h *NoteHandler) Get(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	id := c.Query("id")
	if id == "" {
		response.ToResponse(code.ErrorInvalidParams.Clone().WithDetails("id is required"))
		return
	}

	note, err := h.svc(c).NoteGet(pkgapp.GetUsername(c), id)
	if err != nil {
		toErrResponse(response, err)
		return
	}
	response.ToResponse(code.Success.Clone().WithData(note))
}

// Delete 删除笔记
func (h *NoteHandler) Delete(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	id := c.Query("id")
	if id == "" {
		response.ToResponse(code.ErrorInvalidParams.Clone().WithDetails("id is required"))
		return
	}

	if err := h.svc(c).NoteDelete(pkgapp.GetUsername(c), id); err != nil {
		toErrResponse(response, err)
		return
	}
	response.ToResponse(code.Success)
}

// List 笔记列表：搜索 / 过滤 / 排序 / 分页
func (h *NoteHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &service.NoteListRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.Clone().WithDetails(errs.Errors()...))
		return
	}

	notes, total, err := h.svc(c).NoteList(pkgapp.GetUsername(c), params)
	if err != nil {
		toErrResponse(response, err)
		return
	}
	response.ToResponseList(code.Success.Clone(), notes, total)
}

// Tags 用户全部标签
func (h *NoteHandler) Tags(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	tags, err := h.svc(c).TagList(pkgapp.GetUsername(c))
	if err != nil {
		toErrResponse(response, err)
		return
	}
	response.ToResponse(code.Success.Clone().WithData(tags))
}
