package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/book-lending/lending/internal/model"
)

func (h *Handler) UpsertReview(c echo.Context) error {
	var req model.ReviewRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.svc.UpsertReview(c.Request().Context(), caller(c).ID, c.Param("id"), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, model.NewReviewResultResponse(res))
}

func (h *Handler) ListReviews(c echo.Context) error {
	reviews, err := h.svc.ListReviews(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, model.NewListReviews(reviews))
}

func (h *Handler) UpdateReview(c echo.Context) error {
	var req model.UpdateReviewRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.svc.UpdateReview(c.Request().Context(), caller(c).ID, c.Param("id"), c.Param("reviewId"), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, model.NewReviewResultResponse(res))
}

func (h *Handler) DeleteReview(c echo.Context) error {
	b, err := h.svc.DeleteReview(c.Request().Context(), caller(c).ID, c.Param("id"), c.Param("reviewId"))
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, model.ReviewAggregates{
		AverageRating: b.AverageRating,
		TotalReviews:  b.TotalReviews,
	})
}
