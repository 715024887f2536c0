package refdata

import (
	"errors"
	"net/http"

	"stagegate/common"
	"stagegate/misc"
	"stagegate/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathCurrencies   = "/v1/currencies"
	PathPartners     = "/v1/partners"
	PathTranslations = "/v1/translations"
)

func RegisterRefDataRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	c := r.Group(PathCurrencies, middleWares...)
	c.GET("", handleQueryCurrencies)
	c.POST("", handleCreateCurrency)

	p := r.Group(PathPartners, middleWares...)
	p.GET("", handleQueryPartners)
	p.POST("", handleCreatePartner)
	p.PUT(":id", handleUpdatePartner)
	p.DELETE(":id", handleDeletePartner)

	t := r.Group(PathTranslations, middleWares...)
	t.GET("", handleQueryTranslations)
	t.PUT("", handleSaveTranslation)
	t.DELETE(":id", handleDeleteTranslation)
}

func parseIdParam(c *gin.Context) types.ID {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&common.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}
	return id
}

func handleQueryCurrencies(c *gin.Context) {
	records, err := QueryCurrenciesFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: records, Total: uint64(len(records))})
}

func handleCreateCurrency(c *gin.Context) {
	creation := CurrencyCreating{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	record, err := CreateCurrencyFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func handleQueryPartners(c *gin.Context) {
	records, err := QueryPartnersFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: records, Total: uint64(len(records))})
}

func handleCreatePartner(c *gin.Context) {
	creation := PartnerCreating{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	record, err := CreatePartnerFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func handleUpdatePartner(c *gin.Context) {
	updating := PartnerUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := UpdatePartnerFunc(parseIdParam(c), &updating, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusOK)
}

func handleDeletePartner(c *gin.Context) {
	if err := DeletePartnerFunc(parseIdParam(c), session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}

func handleQueryTranslations(c *gin.Context) {
	records, err := QueryTranslationsFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: records, Total: uint64(len(records))})
}

func handleSaveTranslation(c *gin.Context) {
	saving := TranslationSaving{}
	if err := c.ShouldBindBodyWith(&saving, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	record, err := SaveTranslationFunc(&saving, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleDeleteTranslation(c *gin.Context) {
	if err := DeleteTranslationFunc(parseIdParam(c), session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}
