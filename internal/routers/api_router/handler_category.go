package api_router

import (
	"github.com/haierkeys/offline-note-vault/internal/app"
	"github.com/haierkeys/offline-note-vault/internal/service"
	pkgapp "github.com/haierkeys/offline-note-vault/pkg/app"
	"github.com/haierkeys/offline-note-vault/pkg/code"

	"github.com/gin-gonic/gin"
)

// CategoryHandler 分类 API 路由处理器
type CategoryHandler struct {
	*Handler
}

// NewCategoryHandler 创建 CategoryHandler 实例
func NewCategoryHandler(a *app.App) *CategoryHandler {
	return &CategoryHandler{
		Handler: NewHandler(a),
	}
}

// Create 创建分类
func (h *CategoryHandler) Create(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &service.CategoryCreateRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.Clone().WithDetails(errs.Errors()...))
		return
	}

	category, err := h.svc(c).CategoryCreate(pkgapp.GetUsername(c), params)
	if err != nil {
		toErrResponse(response, err)
		return
	}
	response.ToResponse(code.Success.Clone().WithData(category))
}

// Rename 重命名分类
func (h *CategoryHandler) Rename(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &service.CategoryRenameRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.Clone().WithDetails(errs.Errors()...))
		return
	}

	category, err := h.svc(c).CategoryRename(pkgapp.GetUsername(c), params)
	if err != nil {
		toErrResponse(response, err)
		return
	}
	response.ToResponse(code.Success.Clone().WithData(category))
}

// Delete 删除分类，归属笔记回到未分类
func (h *CategoryHandler) Delete(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	id := c.Query("id")
	if id == "" {
		response.ToResponse(code.ErrorInvalidParams.Clone().WithDetails("id is required"))
		return
	}

	if err := h.svc(c).CategoryDelete(pkgapp.GetUsername(c), id); err != nil {
		toErrResponse(response, err)
		return
	}
	response.ToResponse(code.Success)
}

// List 分类列表（含笔记数）
func (h *CategoryHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	categories, err := h.svc(c).CategoryList(pkgapp.GetUsername(c))
	if err != nil {
		toErrResponse(response, err)
		return
	}
	response.ToResponseList(code.Success.Clone(), categories, len(categories))
}
