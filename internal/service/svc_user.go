package service

import (
	"github.com/haierkeys/offline-note-vault/internal/domain"
	"github.com/haierkeys/offline-note-vault/pkg/code"
	"github.com/haierkeys/offline-note-vault/pkg/timex"
	"github.com/haierkeys/offline-note-vault/pkg/util"
)

// User 对外返回的用户视图，永远不携带口令摘要
type User struct {
	Username    string          `json:"username"`
	Token       string          `json:"token,omitempty"`
	Settings    domain.Settings `json:"settings"`
	NoteCount   int             `json:"noteCount"`
	CreatedAt   timex.Time      `json:"createdAt"`
	LastLoginAt timex.Time      `json:"lastLoginAt,omitempty"`
}

type UserRegisterRequest struct {
	Username        string `json:"username" form:"username" binding:"required"`
	Password        string `json:"password" form:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword" binding:"required"`
}

type UserLoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type UserSettingsRequest struct {
	Lang      string `json:"lang" form:"lang"`
	Theme     string `json:"theme" form:"theme"`
	SortBy    string `json:"sortBy" form:"sortBy"`
	SortOrder string `json:"sortOrder" form:"sortOrder"`
}

func userView(rec *domain.UserRecord) *User {
	return &User{
		Username:    rec.Username,
		Settings:    rec.Settings,
		NoteCount:   len(rec.Notes),
		CreatedAt:   rec.CreatedAt,
		LastLoginAt: rec.LastLoginAt,
	}
}

// UserRegister 用户注册，用户名即键空间中的键
func (svc *Service) UserRegister(param *UserRegisterRequest) (*User, error) {
	if !util.IsValidUsername(param.Username) {
		return nil, code.ErrorUserUsernameNotValid
	}
	if param.Password != param.ConfirmPassword {
		return nil, code.ErrorUserPasswordNotMatch
	}
	if svc.store.Exists(param.Username) {
		return nil, code.ErrorUserAlreadyExists
	}

	digest, err := util.GeneratePasswordDigest(param.Password)
	if err != nil {
		return nil, code.ErrorPasswordNotValid
	}

	now := timex.Now()
	rec := &domain.UserRecord{
		Username:       param.Username,
		PasswordDigest: digest,
		Notes:          []*domain.Note{},
		Categories:     []*domain.Category{},
		Settings:       domain.Settings{Lang: "en", SortBy: "updatedAt", SortOrder: "desc"},
		CreatedAt:      now,
		UpdatedAt:      now,
		LastLoginAt:    now,
	}
	if err := svc.store.Save(svc.context(), param.Username, rec); err != nil {
		return nil, err
	}

	view := userView(rec)
	if svc.tokens != nil {
		token, err := svc.tokens.Generate(rec.Username, svc.clientIP())
		if err != nil {
			return nil, err
		}
		view.Token = token
	}
	return view, nil
}

// UserLogin 用户登录，摘要比对通过后签发 Token 并刷新登录时间
func (svc *Service) UserLogin(param *UserLoginRequest) (*User, error) {
	rec, err := svc.store.Get(svc.context(), param.Username)
	if err != nil {
		return nil, err
	}
	// 用户不存在与口令错误返回同一个码，避免枚举用户名
	if rec == nil || !util.CheckPasswordDigest(rec.PasswordDigest, param.Password) {
		return nil, code.ErrorUserLoginPasswordFailed
	}

	rec, err = svc.mutateRecord(param.Username, func(rec *domain.UserRecord) error {
		rec.LastLoginAt = timex.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	view := userView(rec)
	if svc.tokens != nil {
		token, err := svc.tokens.Generate(rec.Username, svc.clientIP())
		if err != nil {
			return nil, err
		}
		view.Token = token
	}
	return view, nil
}

// UserGet 当前用户视图
func (svc *Service) UserGet(username string) (*User, error) {
	rec, err := svc.record(username)
	if err != nil {
		return nil, err
	}
	return userView(rec), nil
}

// UserUpdateSettings 更新用户偏好
func (svc *Service) UserUpdateSettings(username string, param *UserSettingsRequest) (*User, error) {
	rec, err := svc.mutateRecord(username, func(rec *domain.UserRecord) error {
		if param.Lang != "" {
			rec.Settings.Lang = param.Lang
		}
		if param.Theme != "" {
			rec.Settings.Theme = param.Theme
		}
		if param.SortBy != "" {
			rec.Settings.SortBy = param.SortBy
		}
		if param.SortOrder != "" {
			rec.Settings.SortOrder = param.SortOrder
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return userView(rec), nil
}

// UserDelete 删除账户与全部数据
func (svc *Service) UserDelete(username string) error {
	if !svc.store.Exists(username) {
		return code.ErrorUserNotFound
	}
	return svc.store.Delete(svc.context(), username)
}
