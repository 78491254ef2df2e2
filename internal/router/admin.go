package router

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"ezbuild/internal/admin"

	"github.com/gin-gonic/gin"
)

func panelFrom(c *gin.Context, panels admin.Registry) (admin.Handle, bool) {
	p, found := panels[c.Param("panel")]
	if !found {
		fail(c, http.StatusNotFound, "unknown panel")
		return nil, false
	}
	return p, true
}

func idFrom(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func formFrom(c *gin.Context) (json.RawMessage, bool) {
	b, err := io.ReadAll(c.Request.Body)
	if err != nil || !json.Valid(b) {
		fail(c, http.StatusBadRequest, "invalid form")
		return nil, false
	}
	return b, true
}

func adminList(panels admin.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, found := panelFrom(c, panels)
		if !found {
			return
		}
		ctx, _ := forward(c)
		items, err := p.List(ctx, c.Query("q"))
		if err != nil {
			writeError(c, err)
			return
		}
		ok(c, gin.H{"items": items, "read_only": p.ReadOnly()})
	}
}

func adminCreate(panels admin.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, found := panelFrom(c, panels)
		if !found {
			return
		}
		if p.ReadOnly() {
			writeError(c, admin.ErrReadOnly)
			return
		}
		form, valid := formFrom(c)
		if !valid {
			return
		}
		ctx, _ := forward(c)
		items, err := p.Create(ctx, form)
		if err != nil {
			writeError(c, err)
			return
		}
		ok(c, gin.H{"items": items})
	}
}

func adminUpdate(panels admin.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, found := panelFrom(c, panels)
		if !found {
			return
		}
		if p.ReadOnly() {
			writeError(c, admin.ErrReadOnly)
			return
		}
		id, valid := idFrom(c)
		if !valid {
			return
		}
		form, valid := formFrom(c)
		if !valid {
			return
		}
		ctx, _ := forward(c)
		items, err := p.Update(ctx, id, form)
		if err != nil {
			writeError(c, err)
			return
		}
		ok(c, gin.H{"items": items})
	}
}

// adminDelete 需要 ?confirm=true，否则不发请求。
func adminDelete(panels admin.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, found := panelFrom(c, panels)
		if !found {
			return
		}
		id, valid := idFrom(c)
		if !valid {
			return
		}
		confirmed, _ := strconv.ParseBool(c.Query("confirm"))
		ctx, _ := forward(c)
		items, err := p.Delete(ctx, id, confirmed)
		if err != nil {
			writeError(c, err)
			return
		}
		ok(c, gin.H{"items": items})
	}
}
