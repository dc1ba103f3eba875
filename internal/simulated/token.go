package simulated

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/eduqa/internal/model"
)

// トークンの発行者と有効期間
const (
	tokenIssuer = "eduqa-simulated"
	tokenTTL    = time.Hour
)

// Claims はシミュレーションが発行するアクセストークンのクレーム。
type Claims struct {
	UserID int64        `json:"uid"`
	Roles  []model.Role `json:"roles"`
	jwt.RegisteredClaims
}

// issueCredential はユーザーのアクセストークン（HS256）とリフレッシュトークンを発行する。
func (g *Gateway) issueCredential(u *userRecord) (model.Credential, error) {
	now := g.now().UTC()
	claims := Claims{
		UserID: u.profile.ID,
		Roles:  u.profile.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.profile.ID, 10),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			ID:        uuid.NewString(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return model.Credential{}, err
	}
	return model.Credential{
		AccessToken:  token,
		RefreshToken: uuid.NewString(),
		ExpiresIn:    int(tokenTTL.Seconds()),
	}, nil
}

// verifyAccessToken はシミュレーションが発行したアクセストークンを検証してクレームを返す。
// 有効期限はゲートウェイの時計で判定する。
func (g *Gateway) verifyAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
