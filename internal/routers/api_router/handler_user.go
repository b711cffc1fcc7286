package api_router

import (
	"github.com/haierkeys/offline-note-vault/internal/app"
	"github.com/haierkeys/offline-note-vault/internal/service"
	pkgapp "github.com/haierkeys/offline-note-vault/pkg/app"
	"github.com/haierkeys/offline-note-vault/pkg/code"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler 用户 API 路由处理器
// 使用 App Container 注入依赖，支持统一错误处理
type UserHandler struct {
	*Handler
}

// NewUserHandler 创建 UserHandler 实例
func NewUserHandler(a *app.App) *UserHandler {
	return &UserHandler{
		Handler: NewHandler(a),
	}
}

// Register 用户注册
// 注册功能可能在服务器设置中被禁用
func (h *UserHandler) Register(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	if !h.App.Config().User.RegisterIsEnable {
		response.ToResponse(code.ErrorRegisterClosed)
		return
	}

	params := &service.UserRegisterRequest{}
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("UserHandler.Register.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.Clone().WithDetails(errs.Errors()...))
		return
	}

	user, err := h.svc(c).UserRegister(params)
	if err != nil {
		toErrResponse(response, err)
		return
	}
	response.ToResponse(code.Success.Clone().WithData(user))
}

// Login 用户登录
func (h *UserHandler) Login(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &service.UserLoginRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("UserHandler.Login.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.Clone().WithDetails(errs.Errors()...))
		return
	}

	user, err := h.svc(c).UserLogin(params)
	if err != nil {
		toErrResponse(response, err)
		return
	}
	response.ToResponse(code.Success.Clone().WithData(user))
}

// Info 当前用户信息
func (h *UserHandler) Info(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	username := pkgapp.GetUsername(c)

	user, err := h.svc(c).UserGet(username)
	if err != nil {
		toErrResponse(response, err)
		return
	}
	response.ToResponse(code.Success.Clone().WithData(user))
}

// UpdateSettings 更新用户偏好
func (h *UserHandler) UpdateSettings(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &service.UserSettingsRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.Clone().WithDetails(errs.Errors()...))
		return
	}

	user, err := h.svc(c).UserUpdateSettings(pkgapp.GetUsername(c), params)
	if err != nil {
		toErrResponse(response, err)
		return
	}
	response.ToResponse(code.Success.Clone().WithData(user))
}

// Delete 删除账户与全部数据
func (h *UserHandler) Delete(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	if err := h.svc(c).UserDelete(pkgapp.GetUsername(c)); err != nil {
		toErrResponse(response, err)
		return
	}
	response.ToResponse(code.Success)
}
