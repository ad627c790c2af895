package business

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrorInitializationFail = status.Error(codes.Internal, "Internal configuration is invalid")

	ErrorInvalidAmount = status.Error(codes.InvalidArgument, "Payment amount is missing or invalid")

	ErrorUnknownRail = status.Error(codes.InvalidArgument, "Requested payment rail is not supported")

	ErrorLeaseDoesNotExist = status.Error(codes.NotFound, "Specified lease does not exist")

	ErrorInvalidLease = status.Error(codes.InvalidArgument, "Lease details are missing or invalid")

	ErrorLeaseOverlap = status.Error(codes.FailedPrecondition, "An active lease already covers this property for the requested period")

	ErrorPaymentDoesNotExist = status.Error(codes.NotFound, "Specified payment does not exist")

	ErrorUnauthorizedPayer = status.Error(codes.PermissionDenied, "Payer is not allowed to pay against this lease")

	ErrorInvalidSignature = status.Error(codes.Unauthenticated, "Webhook signature could not be verified")
)
