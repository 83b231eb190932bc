package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tenantry/tenantry/internal/engine/constant"
	"github.com/tenantry/tenantry/internal/engine/model"
	"github.com/tenantry/tenantry/pkg/http"
)

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/10/4 10:47
 * @file: router_organization.go
 * @description: organization router
 */

func (rt *Router) organizationRouter(r fiber.Router, handlers ...fiber.Handler) {
	orgGroup := r.Group("/org", handlers...)
	{
		orgGroup.Post("/add", rt.addOrganization)
		orgGroup.Get("/list", rt.listOrganizations)
		orgGroup.Get("/get/:orgId", rt.getOrganization)
		orgGroup.Get("/slug/:slug", rt.getOrganizationBySlug)
		orgGroup.Post("/update/:orgId", rt.updateOrganization)
		orgGroup.Post("/delete/:orgId", rt.deleteOrganization)

		orgGroup.Get("/:orgId/member/list", rt.listMembers)
		orgGroup.Post("/:orgId/member/add", rt.addMember)
		orgGroup.Post("/:orgId/member/remove", rt.removeMember)
		orgGroup.Post("/:orgId/member/role", rt.updateMemberRole)
		orgGroup.Post("/:orgId/member/deactivate", rt.deactivateMember)
		orgGroup.Post("/:orgId/member/activate", rt.activateMember)
	}
}

type addOrganizationReq struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Website     string `json:"website"`
}

type memberReq struct {
	UserId string `json:"userId"`
	Role   string `json:"role"`
}

func (rt *Router) addOrganization(c *fiber.Ctx) error {
	var req addOrganizationReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErrMsg(c, http.RequestParameterParsingFailed.Code, http.RequestParameterParsingFailed.Msg, c.Path())
	}

	ownerUserId, _ := c.Locals(constant.UserId).(string)
	org := &model.Organization{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Website:     req.Website,
	}

	created, err := rt.orgService.CreateOrganization(org, ownerUserId)
	if err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.DETAIL, created)
	return nil
}

func (rt *Router) getOrganization(c *fiber.Ctx) error {
	org, err := rt.orgService.GetOrganization(c.Params("orgId"))
	if err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.DETAIL, org)
	return nil
}

func (rt *Router) getOrganizationBySlug(c *fiber.Ctx) error {
	org, err := rt.orgService.GetOrganizationBySlug(c.Params("slug"))
	if err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.DETAIL, org)
	return nil
}

func (rt *Router) listOrganizations(c *fiber.Ctx) error {
	pageNum := queryInt(c, "pageNum", 1)
	pageSize := queryInt(c, "pageSize", 10)

	orgs, count, err := rt.orgService.ListOrganizations(pageNum, pageSize)
	if err != nil {
		return respondErr(c, err)
	}

	result := make(map[string]interface{})
	result["organizations"] = orgs
	result["count"] = count

	c.Locals(constant.DETAIL, result)
	return nil
}

func (rt *Router) updateOrganization(c *fiber.Ctx) error {
	updates := make(map[string]interface{})
	if err := c.BodyParser(&updates); err != nil {
		return http.WithRepErrMsg(c, http.RequestParameterParsingFailed.Code, http.RequestParameterParsingFailed.Msg, c.Path())
	}

	if err := rt.orgService.UpdateOrganization(c.Params("orgId"), updates); err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.OPERATION, "")
	return nil
}

func (rt *Router) deleteOrganization(c *fiber.Ctx) error {
	if err := rt.orgService.DeleteOrganization(c.Params("orgId")); err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.OPERATION, "")
	return nil
}

func (rt *Router) listMembers(c *fiber.Ctx) error {
	members, err := rt.orgService.GetMembers(c.Params("orgId"))
	if err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.DETAIL, members)
	return nil
}

func (rt *Router) addMember(c *fiber.Ctx) error {
	var req memberReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErrMsg(c, http.RequestParameterParsingFailed.Code, http.RequestParameterParsingFailed.Msg, c.Path())
	}

	member, err := rt.orgService.AddMember(c.Params("orgId"), req.UserId, req.Role)
	if err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.DETAIL, member)
	return nil
}

func (rt *Router) removeMember(c *fiber.Ctx) error {
	var req memberReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErrMsg(c, http.RequestParameterParsingFailed.Code, http.RequestParameterParsingFailed.Msg, c.Path())
	}

	if err := rt.orgService.RemoveMember(c.Params("orgId"), req.UserId); err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.OPERATION, "")
	return nil
}

func (rt *Router) updateMemberRole(c *fiber.Ctx) error {
	var req memberReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErrMsg(c, http.RequestParameterParsingFailed.Code, http.RequestParameterParsingFailed.Msg, c.Path())
	}

	if err := rt.orgService.UpdateMemberRole(c.Params("orgId"), req.UserId, req.Role); err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.OPERATION, "")
	return nil
}

func (rt *Router) deactivateMember(c *fiber.Ctx) error {
	var req memberReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErrMsg(c, http.RequestParameterParsingFailed.Code, http.RequestParameterParsingFailed.Msg, c.Path())
	}

	if err := rt.orgService.DeactivateMember(c.Params("orgId"), req.UserId); err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.OPERATION, "")
	return nil
}

func (rt *Router) activateMember(c *fiber.Ctx) error {
	var req memberReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErrMsg(c, http.RequestParameterParsingFailed.Code, http.RequestParameterParsingFailed.Msg, c.Path())
	}

	if err := rt.orgService.ActivateMember(c.Params("orgId"), req.UserId); err != nil {
		return respondErr(c, err)
	}

	c.Locals(constant.OPERATION, "")
	return nil
}
