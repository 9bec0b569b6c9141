package handlers

import (
	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/app/service/statistics"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/response"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/types"
)

// Concrete envelope instantiations for the swagger generator, which
// cannot expand Go generics on its own.

type RespOK = response.APIResponse[any]

type RespSubscription = response.APIResponse[*types.SubscriptionInfo]

type RespListPaymentEvents = response.APIResponse[*ListPaymentEventsResponse]

type RespBillingStatistic = response.APIResponse[*statistics.BillingStatisticResponse]
