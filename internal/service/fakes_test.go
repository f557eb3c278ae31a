package service

import (
	"errors"
	"time"

	"go-gelato-ws/internal/model"
	"go-gelato-ws/internal/repository"
	"go-gelato-ws/internal/ws"

	"github.com/google/uuid"
)

// In-memory fakes for the repository interfaces. They mirror the
// semantics the real gorm-backed repos implement, including the
// conditional-update guards.

type fakeRecipeRepo struct {
	recipes map[uuid.UUID]*model.Recipe
}

func newFakeRecipeRepo(recipes ...*model.Recipe) *fakeRecipeRepo {
	f := &fakeRecipeRepo{recipes: make(map[uuid.UUID]*model.Recipe)}
	for _, r := range recipes {
		f.recipes[r.ID] = r
	}
	return f
}

func (f *fakeRecipeRepo) Create(recipe *model.Recipe) error {
	if recipe.ID == uuid.Nil {
		recipe.ID = uuid.New()
	}
	f.recipes[recipe.ID] = recipe
	return nil
}

func (f *fakeRecipeRepo) FindAll() ([]model.Recipe, error) {
	out := make([]model.Recipe, 0, len(f.recipes))
	for _, r := range f.recipes {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRecipeRepo) FindByID(id uuid.UUID) (*model.Recipe, error) {
	r, ok := f.recipes[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return r, nil
}

func (f *fakeRecipeRepo) Update(recipe *model.Recipe) error {
	f.recipes[recipe.ID] = recipe
	return nil
}

func (f *fakeRecipeRepo) ReplaceIngredients(recipeID uuid.UUID, ingredients []model.Ingredient) error {
	r, ok := f.recipes[recipeID]
	if !ok {
		return errors.New("record not found")
	}
	for i := range ingredients {
		ingredients[i].RecipeID = recipeID
	}
	r.Ingredients = ingredients
	return nil
}

type fakeProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newFakeProductRepo(products ...*model.Product) *fakeProductRepo {
	f := &fakeProductRepo{products: make(map[uuid.UUID]*model.Product)}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProductRepo) Create(product *model.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	f.products[product.ID] = product
	return nil
}

func (f *fakeProductRepo) FindAll() ([]model.Product, error) {
	out := make([]model.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProductRepo) FindByID(id uuid.UUID) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return p, nil
}

func (f *fakeProductRepo) FindBySKU(sku string) (*model.Product, error) {
	for _, p := range f.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return nil, errors.New("record not found")
}

func (f *fakeProductRepo) Update(product *model.Product) error {
	f.products[product.ID] = product
	return nil
}

type fakeStockRepo struct {
	items     map[uuid.UUID]*model.StockItem
	movements []model.StockMovement

	// failAdjust makes every AdjustLevel call fail, simulating a DB
	// error mid-consumption.
	failAdjust bool
}

func newFakeStockRepo(items ...*model.StockItem) *fakeStockRepo {
	f := &fakeStockRepo{items: make(map[uuid.UUID]*model.StockItem)}
	for _, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		f.items[item.ID] = item
	}
	return f
}

func (f *fakeStockRepo) CreateItem(item *model.StockItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	f.items[item.ID] = item
	return nil
}

func (f *fakeStockRepo) FindItems() ([]model.StockItem, error) {
	out := make([]model.StockItem, 0, len(f.items))
	for _, item := range f.items {
		out = append(out, *item)
	}
	return out, nil
}

func (f *fakeStockRepo) FindItemByID(id uuid.UUID) (*model.StockItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, repository.ErrStockItemNotFound
	}
	return item, nil
}

func (f *fakeStockRepo) FindItemsByProduct(productID uuid.UUID) ([]model.StockItem, error) {
	var out []model.StockItem
	for _, item := range f.items {
		if item.ProductID == productID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *fakeStockRepo) UpdateItem(item *model.StockItem) error {
	f.items[item.ID] = item
	return nil
}

func (f *fakeStockRepo) AdjustLevel(input repository.AdjustStockInput) (*model.StockMovement, error) {
	if f.failAdjust {
		return nil, errors.New("adjust failed")
	}
	if input.Quantity <= 0 {
		return nil, repository.ErrInvalidAdjustment
	}
	item, ok := f.items[input.StockItemID]
	if !ok {
		return nil, repository.ErrStockItemNotFound
	}

	unitCost := item.AvgUnitCost
	switch input.Type {
	case model.MovementIn:
		newQuantity := item.Quantity + input.Quantity
		if input.UnitCost > 0 && newQuantity > 0 {
			item.AvgUnitCost = (item.Quantity*item.AvgUnitCost + input.Quantity*input.UnitCost) / newQuantity
			unitCost = input.UnitCost
		}
		item.Quantity = newQuantity
	case model.MovementOut:
		if item.Quantity < input.Quantity {
			return nil, repository.ErrInsufficientStock
		}
		item.Quantity -= input.Quantity
	}

	movement := model.StockMovement{
		ProductID:   item.ProductID,
		StockItemID: item.ID,
		Type:        input.Type,
		Quantity:    input.Quantity,
		Balance:     item.Quantity,
		UnitCost:    unitCost,
		TotalCost:   unitCost * input.Quantity,
		PerformedBy: input.PerformedBy,
		Note:        input.Note,
	}
	movement.ID = uuid.New()
	f.movements = append(f.movements, movement)
	return &movement, nil
}

func (f *fakeStockRepo) FindMovements(limit int) ([]model.StockMovement, error) {
	if limit > 0 && limit < len(f.movements) {
		return f.movements[:limit], nil
	}
	return f.movements, nil
}

func (f *fakeStockRepo) GetStockMovement(startDate, endDate time.Time) ([]repository.StockMovementData, error) {
	return nil, nil
}

func (f *fakeStockRepo) GetDashboardStats() (*repository.DashboardStats, error) {
	return &repository.DashboardStats{}, nil
}

type fakePlanRepo struct {
	plans   map[uuid.UUID]*model.ProductionPlan
	records map[uuid.UUID]*model.PlanAvailabilityRecord // keyed by plan id

	// denyComplete makes CompleteIf report a lost race.
	denyComplete bool
}

func newFakePlanRepo(plans ...*model.ProductionPlan) *fakePlanRepo {
	f := &fakePlanRepo{
		plans:   make(map[uuid.UUID]*model.ProductionPlan),
		records: make(map[uuid.UUID]*model.PlanAvailabilityRecord),
	}
	for _, p := range plans {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		f.plans[p.ID] = p
	}
	return f
}

func (f *fakePlanRepo) FindByID(id uuid.UUID) (*model.ProductionPlan, error) {
	p, ok := f.plans[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	cp := *p
	return &cp, nil
}

func (f *fakePlanRepo) FindAll(filter repository.PlanFilter) ([]model.ProductionPlan, error) {
	var out []model.ProductionPlan
	for _, p := range f.plans {
		if !filter.IncludeArchived && p.Archived {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, s := range filter.Statuses {
				if p.Status == s {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePlanRepo) FindActive(exclude *uuid.UUID) ([]model.ProductionPlan, error) {
	var out []model.ProductionPlan
	for _, p := range f.plans {
		if p.Archived {
			continue
		}
		if p.Status != model.PlanScheduled && p.Status != model.PlanInProgress {
			continue
		}
		if exclude != nil && p.ID == *exclude {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePlanRepo) Update(plan *model.ProductionPlan) error {
	f.plans[plan.ID] = plan
	return nil
}

func (f *fakePlanRepo) ScheduleLocked(plan *model.ProductionPlan, lockProductIDs []uuid.UUID, recheck func() (*model.PlanAvailabilityRecord, error)) error {
	record, err := recheck()
	if err != nil {
		return err
	}
	plan.ID = uuid.New()
	f.plans[plan.ID] = plan
	if record != nil {
		record.PlanID = plan.ID
		record.ID = uuid.New()
		f.records[plan.ID] = record
	}
	return nil
}

func (f *fakePlanRepo) TransitionIf(id uuid.UUID, from []model.PlanStatus, to model.PlanStatus, updates map[string]interface{}) (bool, error) {
	p, ok := f.plans[id]
	if !ok {
		return false, nil
	}
	inFrom := false
	for _, s := range from {
		if p.Status == s {
			inFrom = true
		}
	}
	if !inFrom {
		return false, nil
	}
	p.Status = to
	if v, ok := updates["started_at"].(time.Time); ok {
		p.StartedAt = &v
	}
	if v, ok := updates["updated_by"].(string); ok {
		p.UpdatedBy = v
	}
	return true, nil
}

func (f *fakePlanRepo) CompleteIf(id uuid.UUID, patch repository.CompletionPatch) (bool, error) {
	p, ok := f.plans[id]
	if !ok {
		return false, nil
	}
	if f.denyComplete {
		return false, nil
	}
	if p.Status != model.PlanScheduled && p.Status != model.PlanInProgress {
		return false, nil
	}
	p.Status = model.PlanCompleted
	p.StartedAt = &patch.StartedAt
	p.CompletedAt = &patch.CompletedAt
	p.ActualQuantity = &patch.ActualQuantity
	p.ActualCost = &patch.ActualCost
	return true, nil
}

func (f *fakePlanRepo) MarkStagesCompleted(planID uuid.UUID, at time.Time) error {
	p, ok := f.plans[planID]
	if !ok {
		return errors.New("record not found")
	}
	for i := range p.Stages {
		p.Stages[i].Status = model.StageCompleted
		completedAt := at
		p.Stages[i].CompletedAt = &completedAt
	}
	return nil
}

func (f *fakePlanRepo) SetArchived(id uuid.UUID, archived bool, updatedBy string) error {
	p, ok := f.plans[id]
	if !ok {
		return errors.New("record not found")
	}
	p.Archived = archived
	p.UpdatedBy = updatedBy
	return nil
}

type fakeAvailabilityRecordRepo struct {
	records map[uuid.UUID]*model.PlanAvailabilityRecord // keyed by plan id
}

func newFakeAvailabilityRecordRepo() *fakeAvailabilityRecordRepo {
	return &fakeAvailabilityRecordRepo{records: make(map[uuid.UUID]*model.PlanAvailabilityRecord)}
}

func (f *fakeAvailabilityRecordRepo) Create(record *model.PlanAvailabilityRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	f.records[record.PlanID] = record
	return nil
}

func (f *fakeAvailabilityRecordRepo) FindByPlanID(planID uuid.UUID) (*model.PlanAvailabilityRecord, error) {
	record, ok := f.records[planID]
	if !ok {
		return nil, nil
	}
	return record, nil
}

func (f *fakeAvailabilityRecordRepo) Update(record *model.PlanAvailabilityRecord) error {
	f.records[record.PlanID] = record
	return nil
}

type fakeDivergenceRepo struct {
	divergences []*model.Divergence
}

func (f *fakeDivergenceRepo) Create(divergence *model.Divergence) error {
	if divergence.ID == uuid.Nil {
		divergence.ID = uuid.New()
	}
	f.divergences = append(f.divergences, divergence)
	return nil
}

func (f *fakeDivergenceRepo) FindAll(filter repository.DivergenceFilter) ([]model.Divergence, error) {
	var out []model.Divergence
	for _, d := range f.divergences {
		if filter.PlanID != nil && d.PlanID != *filter.PlanID {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeDivergenceRepo) FindByID(id uuid.UUID) (*model.Divergence, error) {
	for _, d := range f.divergences {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, errors.New("record not found")
}

func (f *fakeDivergenceRepo) Resolve(id uuid.UUID, resolvedBy string) error {
	for _, d := range f.divergences {
		if d.ID == id {
			d.Status = model.DivergenceResolved
			d.ResolvedBy = resolvedBy
			return nil
		}
	}
	return errors.New("record not found")
}

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
	for _, u := range users {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) FindByEmail(email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errors.New("record not found")
}

func (f *fakeUserRepo) FindByID(id uuid.UUID) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return u, nil
}

func (f *fakeUserRepo) Create(user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Update(user *model.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Delete(id uuid.UUID) error {
	if _, ok := f.users[id]; !ok {
		return errors.New("record not found")
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) UpdatePassword(userID uuid.UUID, hashedPassword string) error {
	u, ok := f.users[userID]
	if !ok {
		return errors.New("record not found")
	}
	u.Password = hashedPassword
	return nil
}

func (f *fakeUserRepo) UpdatePrivileges(userID uuid.UUID, privileges []model.Privilege) error {
	u, ok := f.users[userID]
	if !ok {
		return errors.New("record not found")
	}
	u.Privileges = privileges
	return nil
}

func (f *fakeUserRepo) FindAll() ([]model.User, error) {
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserRepo) UpdateTokenVersion(userID uuid.UUID, version string) error {
	u, ok := f.users[userID]
	if !ok {
		return errors.New("record not found")
	}
	u.TokenVersion = version
	return nil
}

func (f *fakeUserRepo) UpdateLastSeen(userID uuid.UUID) error {
	u, ok := f.users[userID]
	if !ok {
		return errors.New("record not found")
	}
	now := time.Now()
	u.LastSeenAt = &now
	return nil
}

type fakeRoleRepo struct {
	roles map[uint]*model.Role
}

func newFakeRoleRepo(roles ...*model.Role) *fakeRoleRepo {
	f := &fakeRoleRepo{roles: make(map[uint]*model.Role)}
	for _, r := range roles {
		f.roles[r.ID] = r
	}
	return f
}

func (f *fakeRoleRepo) FindAll() ([]model.Role, error) {
	out := make([]model.Role, 0, len(f.roles))
	for _, r := range f.roles {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRoleRepo) FindByID(id uint) (*model.Role, error) {
	r, ok := f.roles[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return r, nil
}

func (f *fakeRoleRepo) FindByCode(code string) (*model.Role, error) {
	for _, r := range f.roles {
		if r.Code == code {
			return r, nil
		}
	}
	return nil, errors.New("record not found")
}

func (f *fakeRoleRepo) Create(role *model.Role) error {
	f.roles[role.ID] = role
	return nil
}

func (f *fakeRoleRepo) SeedDefaults() error { return nil }

type fakePrivilegeRepo struct {
	privileges []model.Privilege
}

func (f *fakePrivilegeRepo) FindByCode(code string) (*model.Privilege, error) {
	for i := range f.privileges {
		if f.privileges[i].Code == code {
			return &f.privileges[i], nil
		}
	}
	return nil, errors.New("record not found")
}

func (f *fakePrivilegeRepo) FindByCodes(codes []string) ([]model.Privilege, error) {
	var out []model.Privilege
	for _, code := range codes {
		for _, p := range f.privileges {
			if p.Code == code {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (f *fakePrivilegeRepo) FindAll() ([]model.Privilege, error) {
	return f.privileges, nil
}

func (f *fakePrivilegeRepo) Create(privilege *model.Privilege) error {
	f.privileges = append(f.privileges, *privilege)
	return nil
}

func (f *fakePrivilegeRepo) SeedDefaults() error { return nil }

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	notifications []ws.Notification
}

func (n *recordingNotifier) Notify(notification ws.Notification) {
	n.notifications = append(n.notifications, notification)
}
