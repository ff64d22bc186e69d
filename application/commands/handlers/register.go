package handlers

import (
	"prepcoach/application/commands"
	"prepcoach/application/commands/bus"
)

// Set groups every command handler for registration on the bus
type Set struct {
	Journeys   *JourneyHandler
	Progress   *ProgressHandler
	Visibility *VisibilityHandler
	Usage      *UsageHandler
	Billing    *BillingHandler
	Interviews *InterviewHandler
}

// Register wires every command type to its handler
func (s *Set) Register(b *bus.CommandBus) error {
	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{commands.CreateJourneyCommand{}, bus.Adapt(s.Journeys.HandleCreateJourney)},
		{commands.AddNodeCommand{}, bus.Adapt(s.Journeys.HandleAddNode)},
		{commands.ConnectNodesCommand{}, bus.Adapt(s.Journeys.HandleConnectNodes)},
		{commands.StartJourneyCommand{}, bus.Adapt(s.Progress.HandleStartJourney)},
		{commands.StartNodeCommand{}, bus.Adapt(s.Progress.HandleStartNode)},
		{commands.CompleteNodeCommand{}, bus.Adapt(s.Progress.HandleCompleteNode)},
		{commands.SetVisibilityCommand{}, bus.Adapt(s.Visibility.HandleSetVisibility)},
		{commands.BatchSetVisibilityCommand{}, bus.Adapt(s.Visibility.HandleBatchSetVisibility)},
		{commands.ConsumeIterationCommand{}, bus.Adapt(s.Usage.HandleConsumeIteration)},
		{commands.SetBYOKCommand{}, bus.Adapt(s.Usage.HandleSetBYOK)},
		{commands.RemoveBYOKCommand{}, bus.Adapt(s.Usage.HandleRemoveBYOK)},
		{commands.CreateCheckoutCommand{}, bus.Adapt(s.Billing.HandleCreateCheckout)},
		{commands.CreatePortalCommand{}, bus.Adapt(s.Billing.HandleCreatePortal)},
		{commands.HandleWebhookCommand{}, bus.Adapt(s.Billing.HandleWebhook)},
		{commands.CreateInterviewCommand{}, bus.Adapt(s.Interviews.HandleCreateInterview)},
		{commands.UpdateInterviewProgressCommand{}, bus.Adapt(s.Interviews.HandleUpdateProgress)},
		{commands.UpdateInterviewStatusCommand{}, bus.Adapt(s.Interviews.HandleUpdateStatus)},
	}

	for _, r := range registrations {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}
