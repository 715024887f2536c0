package common_test

import (
	"encoding/json"
	"errors"
	"net/http"

	"stagegate/common"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Errors", func() {
	Describe("ErrorBody", func() {
		It("should always carry the data property, null included", func() {
			body, err := json.Marshal(common.ErrorBody{Code: "common.bad_param", Message: "some cause"})
			Expect(err).To(BeNil())
			Expect(string(body)).To(MatchJSON(`{"code":"common.bad_param", "message":"some cause", "data":null}`))
		})
	})

	Describe("ErrBadParam", func() {
		Describe("Error", func() {
			It("should return default message if cause is nil", func() {
				err := common.ErrBadParam{}
				Expect(err.Error()).To(Equal("common.bad_param"))
			})
			It("should invoke the Error() function of cause property if cause is not nil", func() {
				err := common.ErrBadParam{Cause: errors.New("some cause")}
				Expect(err.Error()).To(Equal("some cause"))
			})
		})
		Describe("Respond", func() {
			It("should carry the cause message as a bad request", func() {
				err := common.ErrBadParam{Cause: errors.New("some cause")}
				detail := err.Respond()
				Expect(detail.Status).To(Equal(http.StatusBadRequest))
				Expect(detail.Code).To(Equal("common.bad_param"))
				Expect(detail.Message).To(Equal("some cause"))
			})
		})
	})
})
