package router

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-physio-booking/internal/router/modules"
)

// Module mounts one role's routes (patient, doctor, admin or debug) on the /api group.
type Module interface {
	Register(rg *gin.RouterGroup)
}

var (
	_ Module = (*modules.UserModule)(nil)
	_ Module = (*modules.DoctorModule)(nil)
	_ Module = (*modules.AdminModule)(nil)
	_ Module = (*modules.DebugModule)(nil)
)
