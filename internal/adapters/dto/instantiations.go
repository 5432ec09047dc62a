package dto

// InstantiationRequest is the body of POST /api/instantiations.
type InstantiationRequest struct {
	ServiceUUID string `json:"service_uuid"`
}

// InstantiationResponse is returned by POST /api/instantiations.
type InstantiationResponse struct {
	ServiceInstanceUUID string `json:"service_instance_uuid"`
}

// InstanceListResponse is returned by GET /api/instantiations.
type InstanceListResponse struct {
	ServiceInstanceUUIDList []string `json:"service_instance_uuid_list"`
}
