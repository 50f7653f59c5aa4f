package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/book-lending/lending/internal/model"
)

func (h *Handler) CreateBook(c echo.Context) error {
	var req model.CreateBookRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	b, err := h.svc.CreateBook(c.Request().Context(), caller(c).ID, req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusCreated, model.NewBookResponse(b))
}

func (h *Handler) GetBook(c echo.Context) error {
	b, err := h.svc.GetBook(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, model.NewBookResponse(b))
}

func (h *Handler) listBooks(c echo.Context, books []model.Book, err error) error {
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, model.NewListBooks(books))
}

func (h *Handler) ListOwnedBooks(c echo.Context) error {
	books, err := h.svc.ListOwnedBooks(c.Request().Context(), caller(c).ID)
	return h.listBooks(c, books, err)
}

func (h *Handler) ListAvailableBooks(c echo.Context) error {
	books, err := h.svc.ListAvailableBooks(c.Request().Context(), caller(c).ID, c.QueryParam("genre"))
	return h.listBooks(c, books, err)
}

func (h *Handler) ListBooksByGenre(c echo.Context) error {
	books, err := h.svc.ListAvailableBooks(c.Request().Context(), caller(c).ID, c.Param("genre"))
	return h.listBooks(c, books, err)
}

func (h *Handler) ListLentBooks(c echo.Context) error {
	books, err := h.svc.ListLentBooks(c.Request().Context(), caller(c).ID)
	return h.listBooks(c, books, err)
}

func (h *Handler) ListBorrowedBooks(c echo.Context) error {
	books, err := h.svc.ListBorrowedBooks(c.Request().Context(), caller(c).ID)
	return h.listBooks(c, books, err)
}

func (h *Handler) ListRequestedBooks(c echo.Context) error {
	books, err := h.svc.ListRequestedBooks(c.Request().Context(), caller(c).ID)
	return h.listBooks(c, books, err)
}

func (h *Handler) ListPendingApprovalBooks(c echo.Context) error {
	books, err := h.svc.ListPendingApprovalBooks(c.Request().Context(), caller(c).ID)
	return h.listBooks(c, books, err)
}

func (h *Handler) ListGenres(c echo.Context) error {
	genres, err := h.svc.ListGenres(c.Request().Context())
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, model.Genres{Items: genres})
}

func (h *Handler) UpdateBook(c echo.Context) error {
	var req model.UpdateBookRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	b, err := h.svc.UpdateBook(c.Request().Context(), caller(c).ID, c.Param("id"), req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, model.NewBookResponse(b))
}

func (h *Handler) DeleteBook(c echo.Context) error {
	if err := h.svc.DeleteBook(c.Request().Context(), caller(c).ID, c.Param("id")); err != nil {
		return h.httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) book(c echo.Context, b model.Book, err error) error {
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, model.NewBookResponse(b))
}

func (h *Handler) RequestBorrow(c echo.Context) error {
	b, err := h.svc.RequestBorrow(c.Request().Context(), caller(c).ID, c.Param("id"))
	return h.book(c, b, err)
}

func (h *Handler) Borrow(c echo.Context) error {
	b, err := h.svc.Borrow(c.Request().Context(), caller(c).ID, c.Param("id"))
	return h.book(c, b, err)
}

func (h *Handler) Approve(c echo.Context) error {
	b, err := h.svc.Approve(c.Request().Context(), caller(c).ID, c.Param("id"), c.Param("requestingUserId"))
	return h.book(c, b, err)
}

func (h *Handler) Reject(c echo.Context) error {
	b, err := h.svc.Reject(c.Request().Context(), caller(c).ID, c.Param("id"), c.Param("requestingUserId"))
	return h.book(c, b, err)
}

func (h *Handler) CancelRequest(c echo.Context) error {
	b, err := h.svc.CancelRequest(c.Request().Context(), caller(c).ID, c.Param("id"))
	return h.book(c, b, err)
}

func (h *Handler) Return(c echo.Context) error {
	b, err := h.svc.Return(c.Request().Context(), caller(c).ID, c.Param("id"))
	return h.book(c, b, err)
}

func (h *Handler) Reconcile(c echo.Context) error {
	b, err := h.svc.ReconcileBook(c.Request().Context(), caller(c).ID, c.Param("id"))
	return h.book(c, b, err)
}
