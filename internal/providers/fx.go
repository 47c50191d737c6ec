package providers

import (
	"github.com/salestrackpro/salestrack/internal/providers/email"
	"github.com/salestrackpro/salestrack/internal/providers/pdf"
	"github.com/salestrackpro/salestrack/internal/providers/sms"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	sms.Module,
	pdf.Module,
)
