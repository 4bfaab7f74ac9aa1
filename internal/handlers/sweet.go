package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"sweetshop/internal/domain"
	"sweetshop/internal/logging"
	"sweetshop/internal/models"
	"sweetshop/internal/mykafka"
	"sweetshop/internal/repo"
	"sweetshop/internal/service"
)

type SweetHandler struct {
	Svc      *service.SweetService
	Producer *mykafka.Producer
}

type createSweetRequest struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type updateSweetRequest struct {
	Name     *string  `json:"name"`
	Category *string  `json:"category"`
	Price    *float64 `json:"price"`
	Quantity *int     `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id must be an integer")
	}
	return uint(id), nil
}

func (h *SweetHandler) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.TopicSweetEvents, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish failed", "error", err)
	}
}

func (h *SweetHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets.create")

	var req createSweetRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_rejected", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	sweet := models.Sweet{
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Quantity: req.Quantity,
	}
	if err := h.Svc.Create(ctx, &sweet); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("create_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create sweet")
	}

	h.publish(c, fmt.Sprint(sweet.ID), map[string]any{
		"type":    "sweet_created",
		"sweetID": sweet.ID,
		"name":    sweet.Name,
	})

	return c.JSON(http.StatusCreated, sweet)
}

func (h *SweetHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets.list")

	items, err := h.Svc.List(ctx)
	if err != nil {
		l.Error("list_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list sweets")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *SweetHandler) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets.search")

	items, err := h.Svc.Search(ctx, c.QueryParam("q"))
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("search_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot search sweets")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *SweetHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets.update")

	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req updateSweetRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_rejected", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	sweet, err := h.Svc.Update(ctx, id, repo.SweetPatch{
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Quantity: req.Quantity,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "sweet not found")
		default:
			l.Error("update_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot update sweet")
		}
	}

	h.publish(c, fmt.Sprint(sweet.ID), map[string]any{
		"type":    "sweet_updated",
		"sweetID": sweet.ID,
		"name":    sweet.Name,
	})

	return c.JSON(http.StatusOK, sweet)
}

func (h *SweetHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets.delete")

	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.Svc.Delete(ctx, id); err != nil {
		l.Error("delete_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete sweet")
	}

	h.publish(c, fmt.Sprint(id), map[string]any{
		"type":    "sweet_deleted",
		"sweetID": id,
	})

	return c.NoContent(http.StatusNoContent)
}

// Purchase reports both a missing sweet and an insufficient stock as 400
// domain failures; update and restock keep 404 for a missing row.
func (h *SweetHandler) Purchase(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets.purchase")

	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req quantityRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("purchase_rejected", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	sweet, err := h.Svc.Purchase(ctx, id, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation),
			errors.Is(err, domain.ErrNotFound),
			errors.Is(err, domain.ErrOutOfStock):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			l.Error("purchase_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot purchase sweet")
		}
	}

	h.publish(c, fmt.Sprint(sweet.ID), map[string]any{
		"type":      "sweet_purchased",
		"sweetID":   sweet.ID,
		"quantity":  req.Quantity,
		"remaining": sweet.Quantity,
	})

	return c.JSON(http.StatusOK, sweet)
}

func (h *SweetHandler) Restock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets.restock")

	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req quantityRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("restock_rejected", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	sweet, err := h.Svc.Restock(ctx, id, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "sweet not found")
		default:
			l.Error("restock_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot restock sweet")
		}
	}

	h.publish(c, fmt.Sprint(sweet.ID), map[string]any{
		"type":     "sweet_restocked",
		"sweetID":  sweet.ID,
		"quantity": req.Quantity,
		"total":    sweet.Quantity,
	})

	return c.JSON(http.StatusOK, sweet)
}
