package router

import (
	"context"
	"net/http"

	"ezbuild/internal/auth"
	"ezbuild/internal/backend"
	"ezbuild/internal/cart"
	"ezbuild/internal/catalog"
	"ezbuild/internal/chat"

	"github.com/gin-gonic/gin"
)

// forward 把当前用户的 token 放入 ctx，后端请求原样带上。
func forward(c *gin.Context) (context.Context, auth.Identity) {
	id, _ := auth.FromContext(c)
	return backend.WithToken(c.Request.Context(), id.Token), id
}

// listCatalog 按分类拉取商品并在服务端套用价格/搜索/规格过滤。
func listCatalog(api *backend.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		raws, err := api.ListProducts(c.Request.Context(), c.Param("category"))
		if err != nil {
			writeError(c, err)
			return
		}
		items := catalog.Apply(catalog.NormalizeProducts(raws), catalog.ParseFilter(c.Request.URL.Query()))
		ok(c, items)
	}
}

func listGames(api *backend.Client) gin.HandlerFunc {
	games := backend.NewResource[backend.RawGame](api, "/api/game")
	return func(c *gin.Context) {
		raws, err := games.List(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		ok(c, catalog.NormalizeGames(raws))
	}
}

// listBuilds 返回当前用户的装机单，最新的排在 latest 字段。
func listBuilds(api *backend.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, id := forward(c)
		raws, err := api.ListBuilds(ctx, id.UserID)
		if err != nil {
			writeError(c, err)
			return
		}
		builds := catalog.NormalizeBuilds(raws)
		data := gin.H{"builds": builds}
		if latest, found := catalog.LatestBuild(builds); found {
			data["latest"] = latest
		}
		ok(c, data)
	}
}

func getCart(carts *cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := auth.FromContext(c)
		b, found, err := carts.Load(c.Request.Context(), id.UserID)
		if err != nil {
			writeError(c, err)
			return
		}
		if !found {
			fail(c, http.StatusNotFound, "no build selected for checkout")
			return
		}
		ok(c, gin.H{"build": b, "total": b.Total()})
	}
}

func putCart(carts *cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var b cart.Build
		if err := c.ShouldBindJSON(&b); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		if err := b.Validate(); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		id, _ := auth.FromContext(c)
		if err := carts.Save(c.Request.Context(), id.UserID, b); err != nil {
			writeError(c, err)
			return
		}
		ok(c, gin.H{"total": b.Total()})
	}
}

func clearCart(carts *cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := auth.FromContext(c)
		if err := carts.Clear(c.Request.Context(), id.UserID); err != nil {
			writeError(c, err)
			return
		}
		ok(c, nil)
	}
}

func getProfile(api *backend.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, id := forward(c)
		u, err := api.GetUser(ctx, id.UserID)
		if err != nil {
			writeError(c, err)
			return
		}
		ok(c, u)
	}
}

func putProfile(api *backend.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in backend.ProfileUpdate
		if err := c.ShouldBindJSON(&in); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		ctx, id := forward(c)
		u, err := api.UpdateUser(ctx, id.UserID, in)
		if err != nil {
			writeError(c, err)
			return
		}
		ok(c, u)
	}
}

func chatReply(r *chat.Responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			History []chat.Message `json:"history"`
			Message string         `json:"message" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		ok(c, r.Reply(c.Request.Context(), req.History, req.Message))
	}
}
