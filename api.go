package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/foxcpp/vsu_timetable/ttparser"
)

const (
	queryDateLayout   = "02.01.06"
	defaultLoadsLimit = 10
)

type queryStore interface {
	Groups() ([]ttparser.Group, error)
	Exams(subgroup string) ([]ttparser.ExamCredit, error)
	Loads(limit int) ([]Load, error)
}

func internalError(c *gin.Context, err error) {
	log.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

// requireKey checks X-Api-Key against a bcrypt hash. An empty hash disables
// the guarded endpoints.
func requireKey(hash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hash == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "reload disabled"})
			return
		}
		key := c.GetHeader("X-Api-Key")
		if key == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.Next()
	}
}

func newRouter(st queryStore, pairs pairSource, reload func() (Load, error), keyHash string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/groups", func(c *gin.Context) {
		groups, err := st.Groups()
		if err != nil {
			internalError(c, err)
			return
		}
		if groups == nil {
			groups = []ttparser.Group{}
		}
		c.JSON(http.StatusOK, groups)
	})

	r.GET("/pairs", func(c *gin.Context) {
		subgroup := c.Query("subgroup")
		if subgroup == "" {
			badRequest(c, "subgroup is required")
			return
		}
		day := time.Now().In(timezone)
		if d := c.Query("date"); d != "" {
			var err error
			day, err = time.ParseInLocation(queryDateLayout, d, timezone)
			if err != nil {
				badRequest(c, "date must be DD.MM.YY")
				return
			}
		}

		res, err := pairs.OnDay(subgroup, StripTime(day))
		if err != nil {
			internalError(c, err)
			return
		}
		if res == nil {
			res = []ttparser.Pair{}
		}
		c.JSON(http.StatusOK, res)
	})

	r.GET("/exams", func(c *gin.Context) {
		subgroup := c.Query("subgroup")
		if subgroup == "" {
			badRequest(c, "subgroup is required")
			return
		}
		res, err := st.Exams(subgroup)
		if err != nil {
			internalError(c, err)
			return
		}
		if res == nil {
			res = []ttparser.ExamCredit{}
		}
		c.JSON(http.StatusOK, res)
	})

	r.GET("/loads", func(c *gin.Context) {
		limit := defaultLoadsLimit
		if l := c.Query("limit"); l != "" {
			var err error
			limit, err = strconv.Atoi(l)
			if err != nil || limit <= 0 {
				badRequest(c, "limit must be a positive number")
				return
			}
		}
		res, err := st.Loads(limit)
		if err != nil {
			internalError(c, err)
			return
		}
		if res == nil {
			res = []Load{}
		}
		c.JSON(http.StatusOK, res)
	})

	r.POST("/reload", requireKey(keyHash), func(c *gin.Context) {
		l, err := reload()
		if err != nil {
			internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, l)
	})

	return r
}
