package api

import (
	"github.com/gin-gonic/gin"

	"github.com/lvaldez/padron/internal/handlers"
	"github.com/lvaldez/padron/internal/middleware"
)

func registerFinanceRoutes(api *gin.RouterGroup, deps Dependencies) {
	financeHandler := handlers.NewFinanceHandler(deps.Finance, deps.Resolver)

	cuentas := api.Group("/cuentas", middleware.RequireResource(deps.Resolver, "/accounts"))
	{
		cuentas.POST("", financeHandler.CreateCuenta)
		cuentas.GET("", financeHandler.ListCuentas)
		cuentas.GET("/:id/resumen", financeHandler.Resumen)
	}

	ingresos := api.Group("/ingresos", middleware.RequireResource(deps.Resolver, "/income"))
	{
		ingresos.POST("", financeHandler.CreateIngreso)
		ingresos.GET("", financeHandler.ListIngresos)
	}

	gastos := api.Group("/gastos", middleware.RequireResource(deps.Resolver, "/expenses"))
	{
		gastos.POST("", financeHandler.CreateGasto)
		gastos.GET("", financeHandler.ListGastos)
	}
}
